package report

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/report")
	{
		grp.GET("/scadenze", h.Aging)
	}
}
