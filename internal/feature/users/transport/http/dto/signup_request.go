// Package dto defines data transfer objects for the users feature's HTTP transport layer.
package dto

// BirthdayLayout is the accepted birthday format.
const BirthdayLayout = "2006-01-02"

// SignupReq represents the request body for the /users/signup endpoint.
// It uses Gin's binding tags for validation; the birthday range is checked by the handler.
type SignupReq struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=4,max=25"`
	Password string `json:"password" binding:"required,min=8,max=20"`
	FullName string `json:"fullName" binding:"required,min=2,max=60"`
	Birthday string `json:"birthday" binding:"required,datetime=2006-01-02"`
}
