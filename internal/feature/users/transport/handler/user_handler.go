// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"identity_backend/internal/feature/users/domain/entity"
	"identity_backend/internal/feature/users/transport/http/dto"
	"identity_backend/internal/feature/users/usecase"
	jwtmw "identity_backend/internal/platform/jwt"
)

// earliestBirthday is the lower bound for signup birthdays.
var earliestBirthday = time.Date(1909, 1, 1, 0, 0, 0, 0, time.UTC)

// IdentityUsecase はユーザー登録・認証・プロフィール取得のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type IdentityUsecase interface {
	SignUp(ctx context.Context, in usecase.SignUpInput) (*entity.User, error)
	SignIn(ctx context.Context, username string, password entity.Plaintext) (string, error)
	GetProfile(ctx context.Context, subjectID uint) (*entity.User, error)
}

// UserHandler はユーザー操作のHTTPリクエストを処理します。
type UserHandler struct {
	identity IdentityUsecase
	now      func() time.Time
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(identity IdentityUsecase) *UserHandler {
	return &UserHandler{identity: identity, now: time.Now}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メールアドレスまたはユーザー名の重複時は409を返却
// - 成功時は作成したユーザーと共に201を返却
func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}

	birthday, err := h.parseBirthday(req.Birthday)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}

	user, err := h.identity.SignUp(c.Request.Context(), usecase.SignUpInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  entity.Plaintext(req.Password),
		FullName:  req.FullName,
		BirthDate: birthday,
	})
	if err != nil {
		var conflict *usecase.ConflictError
		if errors.As(err, &conflict) {
			slog.Warn("signup conflict", "field", conflict.Field, "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, dto.ErrorRes{Error: conflict.Error()})
			return
		}
		h.internalError(c, "signup failed", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserRes(user))
}

// Signin はログインAPIエンドポイントを処理します。
// - ユーザーが存在しない場合は400、パスワード不一致は401を返却
// - 認証成功時はトークン付きで200を返却
func (h *UserHandler) Signin(c *gin.Context) {
	var req dto.SigninReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signin validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}

	token, err := h.identity.SignIn(c.Request.Context(), req.Username, entity.Plaintext(req.Password))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.TokenRes{Token: token})
	case errors.Is(err, usecase.ErrUserNotFound):
		slog.Warn("signin unknown user", "username", req.Username, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "User with given username doesn't exist"})
	case errors.Is(err, usecase.ErrInvalidCredentials):
		slog.Warn("signin invalid password", "username", req.Username, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "Password is invalid"})
	default:
		h.internalError(c, "signin failed", err)
	}
}

// Profile は認証済みユーザーのプロフィールを返します。
// jwtmw.AuthRequiredの後段で使用します。
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := jwtmw.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "unauthorized"})
		return
	}

	user, err := h.identity.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "User not found."})
			return
		}
		h.internalError(c, "profile lookup failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

func (h *UserHandler) parseBirthday(s string) (time.Time, error) {
	birthday, err := time.Parse(dto.BirthdayLayout, s)
	if err != nil {
		return time.Time{}, errors.New("birthday must be a date in YYYY-MM-DD format")
	}
	if birthday.Before(earliestBirthday) {
		return time.Time{}, errors.New("Unless you're a time traveler, you can't be born before 1909")
	}
	if birthday.After(h.now()) {
		return time.Time{}, errors.New("Birthday cannot be in the future")
	}
	return birthday, nil
}

// internalError maps store outages to 503 and everything else to 500.
func (h *UserHandler) internalError(c *gin.Context, msg string, err error) {
	if errors.Is(err, usecase.ErrUnavailable) {
		slog.Error(msg, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusServiceUnavailable, dto.ErrorRes{Error: "service unavailable"})
		return
	}
	slog.Error(msg, "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
}
