package contract

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

type createContractRequest struct {
	ClientID          int64           `json:"cliente_id" binding:"required"`
	Description       string          `json:"descrizione"`
	PriceTotal        decimal.Decimal `json:"prezzo_totale" binding:"required"`
	DownPayment       decimal.Decimal `json:"acconto"`
	CreditsTotal      int             `json:"crediti_totali"`
	OpenedAt          string          `json:"data_apertura"`
	ExpiresAt         string          `json:"data_scadenza"`
	DownPaymentMethod string          `json:"metodo_acconto"`
}

func (h *Handler) Create(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "payload non valido", err.Error())
		return
	}

	in := CreateInput{
		ClientID:          req.ClientID,
		Description:       req.Description,
		PriceTotal:        req.PriceTotal,
		DownPayment:       req.DownPayment,
		CreditsTotal:      req.CreditsTotal,
		DownPaymentMethod: req.DownPaymentMethod,
	}
	if req.OpenedAt != "" {
		d, err := time.Parse("2006-01-02", req.OpenedAt)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_apertura non valida")
			return
		}
		in.OpenedAt = d
	}
	if req.ExpiresAt != "" {
		d, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_scadenza non valida")
			return
		}
		in.ExpiresAt = &d
	}

	contract, err := h.service.Create(c.Request.Context(), trainerID, in)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, contract)
}

func (h *Handler) List(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	clientID, _ := strconv.ParseInt(c.Query("cliente_id"), 10, 64)

	contracts, err := h.service.List(c.Request.Context(), trainerID, clientID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contratti": contracts})
}

func (h *Handler) Get(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	contract, err := h.service.Get(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, contract)
}

type updateContractRequest struct {
	Description *string `json:"descrizione"`
	ExpiresAt   *string `json:"data_scadenza"`
	Closed      *bool   `json:"chiuso"`
}

func (h *Handler) Update(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "payload non valido", err.Error())
		return
	}

	in := UpdateInput{Description: req.Description, Closed: req.Closed}
	if req.ExpiresAt != nil {
		d, err := time.Parse("2006-01-02", *req.ExpiresAt)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_scadenza non valida")
			return
		}
		in.ExpiresAt = &d
	}

	contract, err := h.service.Update(c.Request.Context(), trainerID, id, in)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, contract)
}

func (h *Handler) Delete(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	if err := h.service.Delete(c.Request.Context(), trainerID, id); err != nil {
		h.mapError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type createInstallmentRequest struct {
	DueDate string          `json:"data_scadenza" binding:"required"`
	Amount  decimal.Decimal `json:"importo_previsto" binding:"required"`
}

func (h *Handler) CreateInstallment(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req createInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "payload non valido", err.Error())
		return
	}
	due, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_scadenza non valida")
		return
	}

	inst, err := h.service.CreateInstallment(c.Request.Context(), trainerID, id, due, req.Amount)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, inst)
}

type generatePlanRequest struct {
	Amount       decimal.Decimal `json:"importo" binding:"required"`
	Count        int             `json:"numero_rate" binding:"required,gt=0"`
	FirstDueDate string          `json:"prima_scadenza" binding:"required"`
	Frequency    string          `json:"frequenza"`
}

func (h *Handler) GeneratePlan(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req generatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "payload non valido", err.Error())
		return
	}
	first, err := time.Parse("2006-01-02", req.FirstDueDate)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "prima_scadenza non valida")
		return
	}

	installments, err := h.service.GeneratePlan(c.Request.Context(), trainerID, id, PlanInput{
		Amount:       req.Amount,
		Count:        req.Count,
		FirstDueDate: first,
		Frequency:    req.Frequency,
	})
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"rate": installments})
}

type payRequest struct {
	Amount decimal.Decimal `json:"importo" binding:"required"`
	Method string          `json:"metodo" binding:"required"`
	Date   string          `json:"data_pagamento"`
}

func (h *Handler) Pay(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "payload non valido", err.Error())
		return
	}

	var paymentDate time.Time
	if req.Date != "" {
		paymentDate, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "data_pagamento non valida")
			return
		}
	}

	inst, err := h.service.Pay(c.Request.Context(), trainerID, id, req.Amount, req.Method, paymentDate)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, inst)
}

func (h *Handler) Unpay(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	inst, err := h.service.Unpay(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, inst)
}

func (h *Handler) Credits(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	used, err := h.service.CreditsUsed(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}
	available, err := h.service.CreditsAvailable(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"crediti_usati":       used,
		"crediti_disponibili": available,
	})
}

func (h *Handler) ClientCredits(c *gin.Context) {
	trainerID := c.GetInt64("trainer_id")
	id, err := pathID(c)
	if err != nil {
		return
	}

	credits, err := h.service.ClientResidual(c.Request.Context(), trainerID, id)
	if err != nil {
		h.mapError(c, err)
		return
	}

	response.Success(c, http.StatusOK, credits)
}

// mapError translates the sentinel taxonomy into the HTTP surface. The
// messages keep the kind-identifying Italian wording ("residuo",
// "chiuso", "rate", "sedute") the clients match on.
func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrResidualExceeded):
		response.Error(c, http.StatusUnprocessableEntity, "RESIDUAL_EXCEEDED", err.Error())
	case errors.Is(err, ErrOverpayment):
		response.Error(c, http.StatusUnprocessableEntity, "OVERPAYMENT", err.Error())
	case errors.Is(err, ErrContractClosed):
		response.Error(c, http.StatusBadRequest, "CONTRACT_CLOSED", err.Error())
	case errors.Is(err, ErrAlreadySettled):
		response.Error(c, http.StatusBadRequest, "ALREADY_SETTLED", err.Error())
	case errors.Is(err, ErrNothingToReverse):
		response.Error(c, http.StatusBadRequest, "NOTHING_TO_REVERSE", err.Error())
	case errors.Is(err, ErrHasPendingInstallments):
		response.Error(c, http.StatusConflict, "PENDING_INSTALLMENTS", err.Error())
	case errors.Is(err, ErrHasLinkedEvents):
		response.Error(c, http.StatusConflict, "LINKED_EVENTS", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed")
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "id non valido")
		return 0, errors.New("invalid id")
	}
	return id, nil
}
