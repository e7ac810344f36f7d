package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Internal errors are
// logged with their cause and reported to the client generically.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
		log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(statusFor(kind), gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func success(c *gin.Context, status int, msg string, extra gin.H) {
	body := gin.H{"message": msg, "success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
