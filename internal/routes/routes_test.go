package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"orusledger/internal/config"
	"orusledger/internal/handlers"
	"orusledger/internal/metrics"
	"orusledger/internal/middleware"
	"orusledger/internal/repositories"
	"orusledger/internal/services/referral"
	"orusledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app  *fiber.App
	repo *repositories.MemoryLedgerRepository
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository(true)
	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(reg)
	walletSvc := wallet.NewService(repo, nil, wallet.WalletConfig{}, collector)
	referralSvc := referral.NewService(repo, walletSvc, referral.Config{BonusCoins: 50}, collector)

	app := NewApp(cfg)
	SetupRoutes(app, Dependencies{
		Config:   cfg,
		Wallet:   walletSvc,
		Referral: referralSvc,
		Health: handlers.NewHealthHandler("test", map[string]handlers.Pinger{
			"database": func(context.Context) error { return nil },
			"redis":    nil,
		}),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return &testServer{app: app, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) openAccount(t *testing.T, id string) string {
	t.Helper()
	status, body := s.do(t, "POST", "/api/accounts", map[string]string{"account_id": id})
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["referral_code"].(string)
}

func (s *testServer) credit(t *testing.T, id, currency string, amount int64) {
	t.Helper()
	status, body := s.do(t, "POST", "/internal/wallet/credit", map[string]interface{}{
		"account_id": id,
		"amount":     amount,
		"currency":   currency,
		"source":     "topup",
	})
	require.Equal(t, fiber.StatusOK, status, body)
}

func TestAccountAndBalanceRoutes(t *testing.T) {
	s := newTestServer(t, config.Config{})
	code := s.openAccount(t, "u-1")
	assert.Len(t, code, 8)

	status, body := s.do(t, "POST", "/api/accounts", map[string]string{"account_id": "u-1"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ACCOUNT_EXISTS", body["code"])

	s.credit(t, "u-1", "money", 1250)

	status, body = s.do(t, "GET", "/api/accounts/u-1/balance", nil)
	require.Equal(t, fiber.StatusOK, status)
	money := body["money"].(map[string]interface{})
	assert.Equal(t, float64(1250), money["amount"])
	assert.Equal(t, "12.50", money["display"])
	coins := body["coins"].(map[string]interface{})
	assert.Equal(t, float64(0), coins["amount"])

	status, body = s.do(t, "GET", "/api/accounts/u-1/balance/money", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "12.50", body["balance"].(map[string]interface{})["display"])

	status, body = s.do(t, "GET", "/api/accounts/ghost/balance", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", body["code"])
}

func TestMutationRoutes(t *testing.T) {
	s := newTestServer(t, config.Config{})
	s.openAccount(t, "u-1")
	s.credit(t, "u-1", "coins", 50)

	tests := []struct {
		name       string
		path       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient funds",
			path:       "/internal/wallet/debit",
			body:       map[string]interface{}{"account_id": "u-1", "amount": 60, "currency": "coins", "source": "spend"},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_FUNDS",
		},
		{
			name:       "invalid amount",
			path:       "/internal/wallet/credit",
			body:       map[string]interface{}{"account_id": "u-1", "amount": 0, "currency": "coins", "source": "spend"},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "INVALID_AMOUNT",
		},
		{
			name:       "invalid currency",
			path:       "/internal/wallet/credit",
			body:       map[string]interface{}{"account_id": "u-1", "amount": 5, "currency": "gems", "source": "spend"},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "INVALID_CURRENCY",
		},
		{
			name:       "missing source",
			path:       "/internal/wallet/credit",
			body:       map[string]interface{}{"account_id": "u-1", "amount": 5, "currency": "coins"},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "debit within balance",
			path:       "/internal/wallet/debit",
			body:       map[string]interface{}{"account_id": "u-1", "amount": 50, "currency": "coins", "source": "spend"},
			wantStatus: fiber.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, "POST", tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status, body)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
		})
	}

	assert.Len(t, s.repo.Entries(), 2)

	status, body := s.do(t, "GET", "/internal/wallet/u-1/reconcile", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["consistent"])
}

func TestTransactionRoutes(t *testing.T) {
	s := newTestServer(t, config.Config{})
	s.openAccount(t, "u-1")
	for i := 0; i < 3; i++ {
		s.credit(t, "u-1", "money", 100)
	}
	s.credit(t, "u-1", "coins", 5)

	status, body := s.do(t, "GET", "/api/accounts/u-1/transactions?limit=2", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(4), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])

	status, body = s.do(t, "GET", "/api/accounts/u-1/transactions/coins", nil)
	require.Equal(t, fiber.StatusOK, status)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "credit", entry["type"])
	assert.Equal(t, "coins", entry["currency"])

	status, body = s.do(t, "GET", "/api/accounts/u-1/transactions?type=debit", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(t, "GET", "/api/accounts/u-1/transactions?type=refund", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_DIRECTION", body["code"])
}

func TestReferralRoutes(t *testing.T) {
	s := newTestServer(t, config.Config{})
	code := s.openAccount(t, "F")
	s.openAccount(t, "R")

	status, body := s.do(t, "POST", "/api/accounts/R/referral/apply", map[string]string{"referral_code": code})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(50), body["coins_earned"])
	assert.Equal(t, "F", body["referrer_id"])

	status, body = s.do(t, "POST", "/api/accounts/R/referral/apply", map[string]string{"referral_code": code})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_REFERRED", body["code"])

	status, body = s.do(t, "POST", "/api/accounts/F/referral/apply", map[string]string{"referral_code": code})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "SELF_REFERRAL_FORBIDDEN", body["code"])

	status, body = s.do(t, "GET", "/api/accounts/F/referral", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, code, body["referral_code"])
	assert.Equal(t, float64(1), body["total_referrals"])
}

func TestSignupWithReferralCode(t *testing.T) {
	s := newTestServer(t, config.Config{})
	code := s.openAccount(t, "F")

	status, body := s.do(t, "POST", "/api/accounts", map[string]string{"account_id": "R", "referral_code": code})
	require.Equal(t, fiber.StatusCreated, status, body)
	require.Contains(t, body, "referral")

	status, body = s.do(t, "GET", "/api/accounts/R/balance/coins", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(50), body["balance"].(map[string]interface{})["amount"])

	status, body = s.do(t, "POST", "/api/accounts", map[string]string{"account_id": "Q", "referral_code": "ZZZZ9999"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, body, "referral_error")
}

func TestInternalRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, config.Config{InternalAPIToken: "s3cret"})
	s.openAccount(t, "u-1")

	req := map[string]interface{}{"account_id": "u-1", "amount": 5, "currency": "coins", "source": "game"}
	status, _ := s.do(t, "POST", "/internal/wallet/credit", req)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "POST", "/internal/wallet/credit", req, middleware.InternalTokenHeader, "s3cret")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, config.Config{RateLimitPerMinute: 2})
	s.openAccount(t, "a")
	s.openAccount(t, "b")
	status, _ := s.do(t, "POST", "/api/accounts", map[string]string{"account_id": "c"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, config.Config{})
	status, body := s.do(t, "GET", "/health", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "connected", services["database"])
	assert.Equal(t, "disabled", services["redis"])

	s.openAccount(t, "u-1")
	s.credit(t, "u-1", "coins", 5)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ledger_mutations_total")
}

func TestHealthDegraded(t *testing.T) {
	app := NewApp(config.Config{})
	SetupRoutes(app, Dependencies{
		Health: handlers.NewHealthHandler("test", map[string]handlers.Pinger{
			"database": func(context.Context) error { return errors.New("down") },
		}),
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
