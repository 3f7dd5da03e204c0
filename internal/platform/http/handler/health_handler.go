// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Component statuses reported by /healthz.
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
	StatusDisabled    = "disabled"
)

const pingTimeout = 2 * time.Second

// PingFunc checks a single dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler は /healthz エンドポイントを処理します。
// dbが到達不能なら503、キャッシュの障害はdegradedとして200で報告します。
type HealthHandler struct {
	db    PingFunc
	cache PingFunc
}

// NewHealthHandler はHealthHandlerを生成します。cacheがnilの場合はdisabledと報告します。
func NewHealthHandler(db, cache PingFunc) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	components := gin.H{
		"db":    h.check(ctx, "db", h.db, StatusUnavailable),
		"cache": h.check(ctx, "cache", h.cache, StatusDegraded),
	}

	status, code := StatusOK, http.StatusOK
	switch {
	case components["db"] != StatusOK:
		status, code = StatusUnavailable, http.StatusServiceUnavailable
	case components["cache"] == StatusDegraded:
		status = StatusDegraded
	}

	if c.Request.Method == http.MethodHead {
		c.Status(code)
		return
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}

func (h *HealthHandler) check(ctx context.Context, name string, ping PingFunc, onFailure string) string {
	if ping == nil {
		return StatusDisabled
	}
	if err := ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "component", name, "error", err)
		return onFailure
	}
	return StatusOK
}
