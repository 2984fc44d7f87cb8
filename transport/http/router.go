package http

import (
	"github.com/actxion/auth/internal/logger"
	"github.com/actxion/auth/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles what the router exposes
type Services struct {
	Auth        *service.AuthService
	Wallet      *service.WalletAuth
	Credentials *service.Credentials
	Accounts    *service.Accounts
}

// SetupRouter sets up the Gin router
func SetupRouter(s Services, log *zap.Logger) *gin.Engine {
	log = logger.OrNop(log)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(log.Named("http")))

	handlers := NewAuthHandlers(s.Auth, s.Wallet, s.Credentials, s.Accounts, log.Named("http"))

	router.GET("/healthz", Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/api/auth")
	{
		auth.GET("/message", handlers.Message)
		auth.POST("/verify", handlers.Verify)
		auth.POST("/v1/user/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Protected API routes
	user := router.Group("/api/v1/user")
	user.Use(AuthMiddleware(s.Auth))
	{
		user.GET("/profile", handlers.Profile)
		user.POST("/wallet/connect", handlers.ConnectWallet)
		user.POST("/wallet/disconnect", handlers.DisconnectWallet)
	}

	return router
}
