package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Search        *SearchHandler
	StreamLimiter gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", deps.Search.Search)
	api.POST("/search/hybrid", deps.Search.Hybrid)
	api.POST("/search/fast", deps.Search.Fast)
	api.GET("/search/stats", deps.Search.Stats)

	streamGroup := api.Group("")
	if deps.StreamLimiter != nil {
		streamGroup.Use(deps.StreamLimiter)
	}
	streamGroup.GET("/search/stream", deps.Search.Stream)
}
