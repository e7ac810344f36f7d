package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/middleware"
	"studentrecords/internal/service"
)

type RouterDeps struct {
	Auth     *service.AuthService
	Students *service.StudentService
	Cookie   *middleware.SessionCookie
	Log      *slog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(d.Log), gin.Recovery())

	authH := NewAuthHandler(d.Auth, d.Cookie, d.Log)
	studentH := NewStudentHandler(d.Students, d.Log)

	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", authH.Logout)
		auth.GET("/check", authH.Check)
		auth.GET("/profile", authH.Profile)
	}

	students := r.Group("/students", middleware.RequireAuth(d.Auth, d.Cookie))
	{
		students.GET("", studentH.List)
		students.GET("/:id", studentH.Get)
		students.POST("", studentH.Create)
		students.PUT("", studentH.Update)
		students.DELETE("", studentH.Delete)
		students.DELETE("/:id", studentH.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return r
}
