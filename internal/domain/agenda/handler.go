package agenda

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ptdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createEventRequest struct {
	ClientID   int64  `json:"cliente_id" binding:"required"`
	ContractID *int64 `json:"contratto_id"`
	Category   string `json:"categoria" binding:"required"`
	StartsAt   string `json:"inizio" binding:"required"`
	EndsAt     string `json:"fine" binding:"required"`
	Note       string `json:"nota"`
}

func (h *Handler) Create(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	starts, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "inizio non valido, formato atteso RFC3339")
		return
	}
	ends, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "fine non valida, formato atteso RFC3339")
		return
	}

	event, err := h.service.Create(c.Request.Context(), trainerID, CreateInput{
		ClientID:   req.ClientID,
		ContractID: req.ContractID,
		Category:   req.Category,
		StartsAt:   starts,
		EndsAt:     ends,
		Note:       req.Note,
	})
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

func (h *Handler) List(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var from, to time.Time
	if v := c.Query("da"); v != "" {
		from, _ = time.Parse("2006-01-02", v)
	}
	if v := c.Query("a"); v != "" {
		to, _ = time.Parse("2006-01-02", v)
	}

	events, err := h.service.List(c.Request.Context(), trainerID, from, to)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"eventi": events})
}

type setStateRequest struct {
	State string `json:"stato" binding:"required"`
}

func (h *Handler) SetState(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	event, err := h.service.SetState(c.Request.Context(), trainerID, id, req.State)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

func (h *Handler) Cancel(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	event, err := h.service.Cancel(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

func (h *Handler) Delete(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), trainerID, id); err != nil {
		h.mapError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrContractNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrContractClosed):
		response.Error(c, http.StatusBadRequest, "CONTRACT_CLOSED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "id non valido")
		return 0, false
	}
	return id, true
}
