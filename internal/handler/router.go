package handler

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/otpgate/otpgate/internal/middleware"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Users       *UserHandler
	JWTSecret   []byte
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(deps.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})

	auth := router.Group("/api/auth")
	auth.POST("/signup", deps.Auth.Signup)
	auth.POST("/verify-otp", deps.Auth.VerifyOtp)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/forgot-password", deps.Auth.ForgotPassword)
	auth.POST("/reset-password", deps.Auth.ResetPassword)

	user := router.Group("/api/user")
	user.Use(middleware.JWTAuth(deps.JWTSecret))
	user.GET("/profile", deps.Users.GetProfile)
	user.PUT("/profile", deps.Users.UpdateProfile)

	return router
}
