package dto

// SigninReq represents the request body for the /users/signin endpoint.
type SigninReq struct {
	Username string `json:"username" binding:"required,min=4,max=25"`
	Password string `json:"password" binding:"required,min=8,max=20"`
}

// TokenRes is returned by a successful signin.
type TokenRes struct {
	Token string `json:"token"`
}
