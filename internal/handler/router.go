package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tenclo/intradesk/internal/middleware"
)

type RouterDeps struct {
	Circulars     *CircularHandler
	Search        *SearchHandler
	Files         *FileHandler
	JWTSecret     []byte
	PublishWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	publishGroup := api.Group("")
	publishGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	publishGroup.Use(middleware.RequirePublisher())
	publishGroup.Use(middleware.RateLimit(deps.PublishWindow))
	publishGroup.POST("/circulars", deps.Circulars.Create)

	api.GET("/circulars", deps.Circulars.List)
	api.GET("/circulars/:id", deps.Circulars.Get)
	api.GET("/search", deps.Search.Search)
	api.GET("/files/:key", deps.Files.Get)
}
