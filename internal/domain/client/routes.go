package client

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/clienti")
	{
		grp.POST("", h.Create)
		grp.GET("", h.List)
		grp.GET("/:id", h.Get)
		grp.PUT("/:id", h.Update)
		grp.DELETE("/:id", h.Delete)

		grp.POST("/:id/misurazioni", h.AddMeasurement)
		grp.GET("/:id/misurazioni", h.ListMeasurements)
	}
}
