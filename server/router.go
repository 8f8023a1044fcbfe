package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"social-hub/domain/repository"
	httpHandler "social-hub/interfaces/http"
	"social-hub/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	postHandler httpHandler.IPostHandler,
	oauthHandler httpHandler.IOAuthHandler,
	userRepository repository.IUser,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)

	// The OAuth round trip stays outside auth: the provider redirect cannot
	// carry a bearer token.
	router.GET("/auth/:platform/login", oauthHandler.Login)
	router.GET("/auth/:platform/callback", oauthHandler.Callback)

	router.POST("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.POST("/posts/multi-platform", postHandler.CreateMultiPlatform)
	api.GET("/posts/:id", postHandler.GetStatus)
	api.POST("/posts/:id/retry", postHandler.Retry)

	api.GET("/auth/:platform/status", oauthHandler.Status)
	api.DELETE("/auth/:platform/:userId", oauthHandler.Revoke)

	return router
}
