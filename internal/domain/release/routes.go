package release

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the release endpoints on /releases and returns the
// group so other handlers (the change feed) can share it.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) *gin.RouterGroup {
	releases := v1.Group("/releases")
	{
		releases.GET("", h.List)
		releases.POST("", h.Create)
		releases.GET("/:id", h.Get)
		releases.PUT("/:id", h.Update)
		releases.DELETE("/:id", h.Delete)
	}
	return releases
}
