package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ptdesk/internal/database"
	"ptdesk/internal/domain/agenda"
	"ptdesk/internal/domain/auth"
	"ptdesk/internal/domain/client"
	"ptdesk/internal/domain/contract"
	"ptdesk/internal/domain/feed"
	"ptdesk/internal/domain/ledger"
	"ptdesk/internal/domain/report"
	"ptdesk/internal/middleware"
	jwtsvc "ptdesk/internal/pkg/jwt"
)

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	hub    *feed.Hub
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	dsn := fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	require.NoError(t, err, "failed to connect to test database")

	err = db.AutoMigrate(
		&auth.Trainer{},
		&client.Client{},
		&client.Measurement{},
		&contract.Contract{},
		&contract.Installment{},
		&contract.Payment{},
		&ledger.Entry{},
		&ledger.RecurringExpense{},
		&agenda.Event{},
	)
	require.NoError(t, err, "failed to migrate models")
	require.NoError(t, ledger.EnsureIndexes(db), "failed to create indexes")

	j := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	hub := feed.NewHub()

	agendaRepo := agenda.NewRepository(db)
	authService := auth.NewService(db, j)
	contractService := contract.NewService(db, agendaRepo, hub)
	clientService := client.NewService(db, contractService)
	agendaService := agenda.NewService(db, contractService, hub)
	ledgerService := ledger.NewService(db)
	reportService := report.NewService(db)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	auth.RegisterRoutes(v1, auth.NewHandler(authService))

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(j))
	{
		client.RegisterRoutes(protected, client.NewHandler(clientService))
		contract.RegisterRoutes(protected, contract.NewHandler(contractService))
		agenda.RegisterRoutes(protected, agenda.NewHandler(agendaService))
		ledger.RegisterRoutes(protected, ledger.NewHandler(ledgerService))
		report.RegisterRoutes(protected, report.NewHandler(reportService))
	}

	suite := &E2ETestSuite{router: r, db: db, hub: hub}
	t.Cleanup(hub.Close)
	return suite
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "unparseable body: %s", w.Body.String())
	return &resp
}

func (s *E2ETestSuite) registerAndLogin(t *testing.T, email string) string {
	w := s.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
		"email":    email,
		"password": "trainer123",
		"nome":     "Marco",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	w = s.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    email,
		"password": "trainer123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	resp := parseResponse(t, w)
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *E2ETestSuite) createClient(t *testing.T, token, firstName string) int64 {
	w := s.makeRequest("POST", "/api/v1/clienti", map[string]interface{}{
		"nome":    firstName,
		"cognome": "Bianchi",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, "create client failed: %s", w.Body.String())
	resp := parseResponse(t, w)
	return int64(resp.Data["id"].(float64))
}

func TestFlow1_RegistrationAndAuth(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("register and login", func(t *testing.T) {
		token := suite.registerAndLogin(t, "marco@test.it")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
			"email":    "marco@test.it",
			"password": "trainer123",
			"nome":     "Marco",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "marco@test.it",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("protected route requires token", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/clienti", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFlow2_ContractSchedulingAndPayments(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerAndLogin(t, "marco@test.it")
	clientID := suite.createClient(t, token, "Anna")

	var contractID int64
	t.Run("open contract with down payment", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
			"cliente_id":     clientID,
			"prezzo_totale":  "1000",
			"acconto":        "200",
			"crediti_totali": 10,
			"metodo_acconto": "BONIFICO",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, "create contract failed: %s", w.Body.String())
		resp := parseResponse(t, w)
		contractID = int64(resp.Data["id"].(float64))
		assert.Equal(t, "PARZIALE", resp.Data["stato_pagamento"])
	})

	t.Run("malformed contract payload reports binding details", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
			"cliente_id":     clientID,
			"prezzo_totale":  "1000",
			"crediti_totali": "dieci",
		}, token)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("plan above payable residual rejected atomically", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/contratti/%d/piano", contractID), map[string]interface{}{
			"importo":        "800.01",
			"numero_rate":    4,
			"prima_scadenza": "2030-01-01",
		}, token)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "RESIDUAL_EXCEEDED", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "residuo")
	})

	var installmentID int64
	t.Run("installment equal to residual accepted", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/contratti/%d/rate", contractID), map[string]interface{}{
			"data_scadenza":    "2030-01-01",
			"importo_previsto": "800",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, "create installment failed: %s", w.Body.String())
		resp := parseResponse(t, w)
		installmentID = int64(resp.Data["id"].(float64))
		assert.Equal(t, "PENDENTE", resp.Data["stato"])
	})

	t.Run("two partial payments settle the installment", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/pagamenti", installmentID), map[string]interface{}{
			"importo": "400",
			"metodo":  "CONTANTI",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, "first payment failed: %s", w.Body.String())
		resp := parseResponse(t, w)
		assert.Equal(t, "PARZIALE", resp.Data["stato"])

		w = suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/pagamenti", installmentID), map[string]interface{}{
			"importo": "400",
			"metodo":  "POS",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, "second payment failed: %s", w.Body.String())
		resp = parseResponse(t, w)
		assert.Equal(t, "SALDATA", resp.Data["stato"])

		history, ok := resp.Data["pagamenti"].([]interface{})
		require.True(t, ok, "expected payment history in response")
		assert.Len(t, history, 2)
	})

	t.Run("overpayment and double settle rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/pagamenti", installmentID), map[string]interface{}{
			"importo": "1",
			"metodo":  "CONTANTI",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "ALREADY_SETTLED", resp.Error.Code)
	})

	t.Run("contract fully paid", func(t *testing.T) {
		w := suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "SALDATO", resp.Data["stato_pagamento"])
		assert.Equal(t, false, resp.Data["chiuso"])
	})

	t.Run("ledger carries down payment and both payments", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/cassa/movimenti", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		entries := resp.Data["movimenti"].([]interface{})
		assert.Len(t, entries, 3)
	})

	t.Run("reversal restores the installment and the ledger", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/storno", installmentID), nil, token)
		require.Equal(t, http.StatusOK, w.Code, "storno failed: %s", w.Body.String())
		resp := parseResponse(t, w)
		assert.Equal(t, "PENDENTE", resp.Data["stato"])

		w = suite.makeRequest("GET", "/api/v1/cassa/movimenti", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp = parseResponse(t, w)
		entries := resp.Data["movimenti"].([]interface{})
		assert.Len(t, entries, 1, "only the down payment should survive the reversal")

		w = suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/storno", installmentID), nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp = parseResponse(t, w)
		assert.Equal(t, "NOTHING_TO_REVERSE", resp.Error.Code)
	})
}

func TestFlow3_LifecycleGuardViaAgenda(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerAndLogin(t, "marco@test.it")
	clientID := suite.createClient(t, token, "Anna")

	w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
		"cliente_id":     clientID,
		"prezzo_totale":  "100",
		"acconto":        "100",
		"crediti_totali": 1,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, "create contract failed: %s", w.Body.String())
	contractID := int64(parseResponse(t, w).Data["id"].(float64))

	var eventID int64
	t.Run("book and complete the only session", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/agenda", map[string]interface{}{
			"cliente_id":   clientID,
			"contratto_id": contractID,
			"categoria":    "PT",
			"inizio":       "2030-01-01T10:00:00Z",
			"fine":         "2030-01-01T11:00:00Z",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, "create event failed: %s", w.Body.String())
		eventID = int64(parseResponse(t, w).Data["id"].(float64))

		w = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/agenda/%d/stato", eventID), map[string]interface{}{
			"stato": "Fatto",
		}, token)
		require.Equal(t, http.StatusOK, w.Code, "set state failed: %s", w.Body.String())
	})

	t.Run("contract auto-closed", func(t *testing.T) {
		w := suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, true, resp.Data["chiuso"])
		assert.Equal(t, true, resp.Data["chiuso_automatico"])
	})

	t.Run("no new event on the closed contract", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/agenda", map[string]interface{}{
			"cliente_id":   clientID,
			"contratto_id": contractID,
			"categoria":    "PT",
			"inizio":       "2030-01-02T10:00:00Z",
			"fine":         "2030-01-02T11:00:00Z",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(t, w)
		assert.Contains(t, resp.Error.Message, "chiuso")
	})

	t.Run("postponing the session reopens the contract", func(t *testing.T) {
		w := suite.makeRequest("PUT", fmt.Sprintf("/api/v1/agenda/%d/stato", eventID), map[string]interface{}{
			"stato": "Rinviato",
		}, token)
		require.Equal(t, http.StatusOK, w.Code)

		w = suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, false, resp.Data["chiuso"])
	})

	t.Run("credits are recomputed, never stored", func(t *testing.T) {
		w := suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d/crediti", contractID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, float64(0), resp.Data["crediti_usati"])
		assert.Equal(t, float64(1), resp.Data["crediti_disponibili"])
	})
}

func TestFlow4_DeleteGuards(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerAndLogin(t, "marco@test.it")
	clientID := suite.createClient(t, token, "Anna")

	w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
		"cliente_id":     clientID,
		"prezzo_totale":  "500",
		"crediti_totali": 5,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	contractID := int64(parseResponse(t, w).Data["id"].(float64))

	t.Run("client with contracts cannot be deleted", func(t *testing.T) {
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/clienti/%d", clientID), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Contains(t, resp.Error.Message, "contratti")
	})

	t.Run("pending installments block contract delete", func(t *testing.T) {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/contratti/%d/rate", contractID), map[string]interface{}{
			"data_scadenza":    "2030-01-01",
			"importo_previsto": "100",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code)
		installmentID := int64(parseResponse(t, w).Data["id"].(float64))

		w = suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "PENDING_INSTALLMENTS", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "rate")

		w = suite.makeRequest("POST", fmt.Sprintf("/api/v1/rate/%d/pagamenti", installmentID), map[string]interface{}{
			"importo": "100",
			"metodo":  "CONTANTI",
		}, token)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("linked agenda events block contract delete", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/agenda", map[string]interface{}{
			"cliente_id":   clientID,
			"contratto_id": contractID,
			"categoria":    "PT",
			"inizio":       "2030-01-01T10:00:00Z",
			"fine":         "2030-01-01T11:00:00Z",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code)
		eventID := int64(parseResponse(t, w).Data["id"].(float64))

		w = suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "LINKED_EVENTS", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "sedute")

		w = suite.makeRequest("POST", fmt.Sprintf("/api/v1/agenda/%d/annulla", eventID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("clean contract delete cascades and frees the client", func(t *testing.T) {
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		require.Equal(t, http.StatusNoContent, w.Code, "delete contract failed: %s", w.Body.String())

		w = suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/clienti/%d", clientID), nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestFlow5_AgingReportAndRecurringExpenses(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerAndLogin(t, "marco@test.it")
	clientID := suite.createClient(t, token, "Anna")

	w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
		"cliente_id":     clientID,
		"prezzo_totale":  "1000",
		"crediti_totali": 10,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	contractID := int64(parseResponse(t, w).Data["id"].(float64))

	for _, inst := range []map[string]interface{}{
		{"data_scadenza": "2020-01-01", "importo_previsto": "300"},
		{"data_scadenza": "2099-01-01", "importo_previsto": "150"},
	} {
		w := suite.makeRequest("POST", fmt.Sprintf("/api/v1/contratti/%d/rate", contractID), inst, token)
		require.Equal(t, http.StatusCreated, w.Code, "create installment failed: %s", w.Body.String())
	}

	t.Run("aging splits overdue and upcoming", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/report/scadenze", nil, token)
		require.Equal(t, http.StatusOK, w.Code, "aging failed: %s", w.Body.String())
		resp := parseResponse(t, w)

		assert.Equal(t, float64(1), resp.Data["rate_scadute"])
		assert.Equal(t, float64(1), resp.Data["rate_in_arrivo"])
		assert.Equal(t, float64(1), resp.Data["clienti_con_scaduto"])
		assert.Len(t, resp.Data["scadute"].([]interface{}), 4)
		assert.Len(t, resp.Data["in_arrivo"].([]interface{}), 4)
	})

	t.Run("recurring expense posting is idempotent", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/cassa/ricorrenze", map[string]interface{}{
			"nome":      "Affitto sala",
			"categoria": "AFFITTO",
			"importo":   "600",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, "create recurring failed: %s", w.Body.String())

		w = suite.makeRequest("POST", "/api/v1/cassa/ricorrenze/registra?anno=2026&mese=8", nil, token)
		require.Equal(t, http.StatusOK, w.Code, "registra failed: %s", w.Body.String())
		resp := parseResponse(t, w)
		assert.Equal(t, float64(1), resp.Data["registrati"])

		w = suite.makeRequest("POST", "/api/v1/cassa/ricorrenze/registra?anno=2026&mese=8", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp = parseResponse(t, w)
		assert.Equal(t, float64(0), resp.Data["registrati"])
	})

	t.Run("monthly totals reflect the posting", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/cassa/totali?anno=2026&mese=8", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "600", resp.Data["uscite"])
	})
}

func TestFlow6_TenantIsolation(t *testing.T) {
	suite := setupTestSuite(t)
	tokenA := suite.registerAndLogin(t, "marco@test.it")
	tokenB := suite.registerAndLogin(t, "luca@test.it")

	clientID := suite.createClient(t, tokenA, "Anna")
	w := suite.makeRequest("POST", "/api/v1/contratti", map[string]interface{}{
		"cliente_id":     clientID,
		"prezzo_totale":  "500",
		"crediti_totali": 5,
	}, tokenA)
	require.Equal(t, http.StatusCreated, w.Code)
	contractID := int64(parseResponse(t, w).Data["id"].(float64))

	t.Run("foreign rows read as absent", func(t *testing.T) {
		w := suite.makeRequest("GET", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, tokenB)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = suite.makeRequest("GET", fmt.Sprintf("/api/v1/clienti/%d", clientID), nil, tokenB)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/contratti/%d", contractID), nil, tokenB)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("listings stay scoped", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/contratti", nil, tokenB)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Len(t, resp.Data["contratti"].([]interface{}), 0)
	})
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
