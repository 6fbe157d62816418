package client

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ptdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type clientRequest struct {
	FirstName string `json:"nome" binding:"required"`
	LastName  string `json:"cognome" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"telefono"`
	Note      string `json:"nota"`
	BirthDate string `json:"data_nascita"`
}

func (r *clientRequest) toInput(c *gin.Context) (Input, bool) {
	in := Input{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Note:      r.Note,
	}
	if r.BirthDate != "" {
		d, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_nascita non valida")
			return in, false
		}
		in.BirthDate = &d
	}
	return in, true
}

func (h *Handler) Create(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}

	created, err := h.service.Create(c.Request.Context(), trainerID, in)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

func (h *Handler) List(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	clients, err := h.service.List(c.Request.Context(), trainerID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"clienti": clients})
}

func (h *Handler) Get(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	cl, err := h.service.Get(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cl)
}

func (h *Handler) Update(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	in, valid := req.toInput(c)
	if !valid {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), trainerID, id, in)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
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

type measurementRequest struct {
	TakenAt  string          `json:"data"`
	WeightKg decimal.Decimal `json:"peso_kg"`
	BodyFat  decimal.Decimal `json:"massa_grassa_pct"`
	Note     string          `json:"nota"`
}

func (h *Handler) AddMeasurement(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req measurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	var takenAt time.Time
	if req.TakenAt != "" {
		var err error
		takenAt, err = time.Parse("2006-01-02", req.TakenAt)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data non valida")
			return
		}
	}

	m, err := h.service.AddMeasurement(c.Request.Context(), trainerID, id, takenAt, req.WeightKg, req.BodyFat, req.Note)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) ListMeasurements(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, ok := pathID(c)
	if !ok {
		return
	}

	out, err := h.service.ListMeasurements(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"misurazioni": out})
}

func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrActiveContracts):
		response.Error(c, http.StatusConflict, "ACTIVE_CONTRACTS", err.Error())
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
