package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ptdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createEntryRequest struct {
	Type     string          `json:"tipo" binding:"required"`
	Category string          `json:"categoria" binding:"required"`
	Amount   decimal.Decimal `json:"importo" binding:"required"`
	Date     string          `json:"data" binding:"required"`
	Method   string          `json:"metodo"`
	Note     string          `json:"nota"`
	ClientID *int64          `json:"cliente_id"`
}

func (h *Handler) Create(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data non valida, formato atteso YYYY-MM-DD")
		return
	}

	entry, err := h.service.Create(c.Request.Context(), trainerID, CreateEntryInput{
		Type:          req.Type,
		Category:      req.Category,
		Amount:        req.Amount,
		EffectiveDate: date,
		Method:        req.Method,
		Note:          req.Note,
		ClientID:      req.ClientID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType):
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create entry")
		}
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

func (h *Handler) List(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	year, _ := strconv.Atoi(c.Query("anno"))
	month, _ := strconv.Atoi(c.Query("mese"))

	entries, err := h.service.List(c.Request.Context(), trainerID, year, month)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list entries")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"movimenti": entries})
}

func (h *Handler) Totals(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	year, _ := strconv.Atoi(c.Query("anno"))
	month, _ := strconv.Atoi(c.Query("mese"))

	totals, err := h.service.MonthlyTotals(c.Request.Context(), trainerID, year, month)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute totals")
		return
	}

	response.Success(c, http.StatusOK, totals)
}

func (h *Handler) Delete(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "id movimento non valido")
		return
	}

	if err := h.service.Delete(c.Request.Context(), trainerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete entry")
		return
	}

	c.Status(http.StatusNoContent)
}

type createRecurringRequest struct {
	Name       string          `json:"nome" binding:"required"`
	Category   string          `json:"categoria" binding:"required"`
	Amount     decimal.Decimal `json:"importo" binding:"required"`
	DayOfMonth int             `json:"giorno_del_mese"`
}

func (h *Handler) CreateRecurring(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var req createRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	re, err := h.service.CreateRecurringExpense(c.Request.Context(), trainerID, req.Name, req.Category, req.Amount, req.DayOfMonth)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create recurring expense")
		return
	}

	response.Success(c, http.StatusCreated, re)
}

func (h *Handler) ListRecurring(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	out, err := h.service.ListRecurringExpenses(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list recurring expenses")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ricorrenze": out})
}

func (h *Handler) PostRecurringMonth(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	year, _ := strconv.Atoi(c.Query("anno"))
	month, _ := strconv.Atoi(c.Query("mese"))
	if year == 0 || month < 1 || month > 12 {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "anno e mese obbligatori")
		return
	}

	posted, err := h.service.PostMonth(c.Request.Context(), trainerID, year, time.Month(month))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to post recurring expenses")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registrati": posted})
}
