package contract

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	contracts := r.Group("/contratti")
	{
		contracts.POST("", h.Create)
		contracts.GET("", h.List)
		contracts.GET("/:id", h.Get)
		contracts.PUT("/:id", h.Update)
		contracts.DELETE("/:id", h.Delete)

		contracts.POST("/:id/rate", h.CreateInstallment)
		contracts.POST("/:id/piano", h.GeneratePlan)
		contracts.GET("/:id/crediti", h.Credits)
	}

	rate := r.Group("/rate")
	{
		rate.POST("/:id/pagamenti", h.Pay)
		rate.POST("/:id/storno", h.Unpay)
	}

	r.GET("/clienti/:id/crediti", h.ClientCredits)
}
