package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Aging(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	report, err := h.service.Aging(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to build aging report")
		return
	}

	response.Success(c, http.StatusOK, report)
}
