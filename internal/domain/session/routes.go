package session

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	g := v1.Group("/session")
	{
		g.POST("", h.Start)
		g.GET("", h.Current)
		g.DELETE("", h.End)
	}
}
