package ledger

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/cassa")
	{
		grp.GET("/movimenti", h.List)
		grp.POST("/movimenti", h.Create)
		grp.DELETE("/movimenti/:id", h.Delete)
		grp.GET("/totali", h.Totals)

		grp.GET("/ricorrenze", h.ListRecurring)
		grp.POST("/ricorrenze", h.CreateRecurring)
		grp.POST("/ricorrenze/registra", h.PostRecurringMonth)
	}
}
