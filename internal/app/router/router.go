// Package router はHTTPルーティングを組み立てます。
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	userhandler "identity_backend/internal/feature/users/transport/handler"
	platformhandler "identity_backend/internal/platform/http/handler"
	"identity_backend/internal/platform/http/middleware"
	jwtmw "identity_backend/internal/platform/jwt"
)

func NewRouter(users *userhandler.UserHandler, health *platformhandler.HealthHandler,
	verifier jwtmw.Verifier, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	u := r.Group("/users")
	{
		// 新規ユーザー登録
		u.POST("/signup", users.Signup)
		// ログイン（JWT 発行）
		u.POST("/signin", users.Signin)

		// 認証必須のルート
		// → リクエストヘッダーに Bearer トークンが必要になる
		u.GET("/profile", jwtmw.AuthRequired(verifier), users.Profile)
	}

	return r
}
