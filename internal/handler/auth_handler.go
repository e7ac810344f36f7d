package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/middleware"
	"studentrecords/internal/service"
	"studentrecords/internal/session"
)

const notAuthenticated = "Not authenticated"

type AuthHandler struct {
	auth   *service.AuthService
	cookie *middleware.SessionCookie
	log    *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, cookie *middleware.SessionCookie, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	_, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	success(c, http.StatusCreated, "Registration successful! Please login.", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	user, sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.cookie.Set(c.Writer, c.Request, sess.Token); err != nil {
		// The token is still returned in the body, so header-based
		// clients keep working.
		h.log.Warn("set session cookie", "user_id", user.ID, "error", err)
	}

	success(c, http.StatusOK, "Login successful", gin.H{
		"token": sess.Token,
		"user":  user.Public(),
	})
}

// Logout always succeeds, with or without a live session.
func (h *AuthHandler) Logout(c *gin.Context) {
	for _, token := range middleware.RequestTokens(c.Request, h.cookie) {
		h.auth.Logout(token)
	}
	if err := h.cookie.Clear(c.Writer, c.Request); err != nil {
		h.log.Warn("clear session cookie", "error", err)
	}
	success(c, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) Check(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"authenticated": false,
			"error":         notAuthenticated,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        sess.UserID,
		"username":      sess.Username,
		"fullName":      sess.FullName,
		"role":          sess.Role,
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": notAuthenticated})
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), sess)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

func (h *AuthHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := middleware.Authenticate(h.auth, c.Request, h.cookie)
	if err != nil {
		return nil, false
	}
	c.Set(middleware.SessionKey, sess)
	return sess, true
}
