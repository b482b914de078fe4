package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/voucherledger/internal/adapter/http/middleware"
	"github.com/iho/voucherledger/internal/adapter/repository/memory"
	"github.com/iho/voucherledger/internal/infrastructure/metrics"
	"github.com/iho/voucherledger/internal/usecase"
)

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string { return fmt.Sprintf("id-%05d", g.n.Add(1)) }

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	ids := &seqIDs{}
	uow := usecase.NewUnitOfWork(store.TxManager(), nil, time.Second)
	companies, vehicles, vouchers, audit := store.Companies(), store.Vehicles(), store.Vouchers(), store.Audit()

	sequencer := usecase.NewSequencerUseCase(uow, companies, vouchers)
	balance := usecase.NewBalanceUseCase(companies, vehicles, vouchers, nil)

	cfg := RouterConfig{
		CompanyHandler: handler.NewCompanyHandler(usecase.NewCompanyUseCase(companies, ids), sequencer),
		VehicleHandler: handler.NewVehicleHandler(usecase.NewVehicleUseCase(uow, companies, vehicles, vouchers, audit, ids)),
		VoucherHandler: handler.NewVoucherHandler(usecase.NewVoucherUseCase(uow, sequencer, companies, vehicles, vouchers, audit, ids, nil)),
		ReportHandler: handler.NewReportHandler(
			balance,
			usecase.NewReconciliationUseCase(vehicles, vouchers, nil),
			usecase.NewRecoveryUseCase(companies, vehicles, vouchers, usecase.SystemClock{}, nil),
			30,
		),
		MergeHandler:  handler.NewMergeHandler(usecase.NewMergeUseCase(uow, vehicles, vouchers, audit, nil)),
		HealthHandler: handler.NewHealthHandler(nil),
		Logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type client struct {
	t      *testing.T
	router http.Handler
}

func (c client) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/companies/",
		"GET /api/v1/companies/{id}/next-voucher-number",
		"POST /api/v1/companies/{id}/voucher-number",
		"GET /api/v1/companies/{id}/trial-balance",
		"GET /api/v1/companies/{id}/recovery",
		"GET /api/v1/companies/{id}/vouchers",
		"GET /api/v1/vehicles/{id}/balance",
		"GET /api/v1/vehicles/{id}/ledger",
		"GET /api/v1/vehicles/{id}/reconciliation",
		"POST /api/v1/vehicles/{id}/merge",
		"PATCH /api/v1/vouchers/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := client{t: t, router: NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttpFor(reg)
	}))}

	c.do(http.MethodGet, "/health", nil)

	rec := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `voucherledger_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewRouter_LedgerWorkflow(t *testing.T) {
	c := client{t: t, router: NewRouter(newRouterConfig())}

	rec := c.do(http.MethodPost, "/api/v1/companies/", dto.CreateCompanyRequest{
		Name: "Acme", FinancialYearStart: "2024-04-01", FinancialYearEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	company := decode[dto.CompanyResponse](t, rec)

	newVehicle := func(number string) dto.VehicleResponse {
		rec := c.do(http.MethodPost, "/api/v1/vehicles/", dto.CreateVehicleRequest{CompanyID: company.ID, Number: number})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[dto.VehicleResponse](t, rec)
	}
	a, b := newVehicle("MH12-A"), newVehicle("MH12-B")

	post := func(vehicleID, date, amount, side string) dto.VoucherResponse {
		rec := c.do(http.MethodPost, "/api/v1/vouchers/", map[string]any{
			"company_id": company.ID, "vehicle_id": vehicleID, "date": date, "amount": amount, "side": side,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[dto.VoucherResponse](t, rec)
	}
	first := post(a.ID, "2024-06-01", "100", "debit")
	post(b.ID, "2024-06-02", "30", "credit")
	assert.Equal(t, int64(1), first.VoucherNumber)

	rec = c.do(http.MethodGet, "/api/v1/companies/"+company.ID+"/next-voucher-number", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), decode[dto.VoucherNumberResponse](t, rec).VoucherNumber)

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+a.ID+"/balance?as_of=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", decode[dto.BalanceResponse](t, rec).Balance.String())

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+a.ID+"/ledger?start=2024-01-01&end=2024-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.LedgerResponse](t, rec).Lines, 1)

	// a repeated merge request is answered from the idempotency store or
	// from the audit trail, never applied twice
	rec = c.do(http.MethodPost, "/api/v1/vehicles/"+a.ID+"/merge", dto.MergeRequest{TargetVehicleID: b.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	merged := decode[dto.MergeResponse](t, rec)
	assert.Equal(t, int64(1), merged.VouchersMoved)

	rec = c.do(http.MethodPost, "/api/v1/vehicles/"+a.ID+"/merge", dto.MergeRequest{TargetVehicleID: b.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.MergeResponse](t, rec).AlreadyApplied)

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+b.ID+"/balance?as_of=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "70", decode[dto.BalanceResponse](t, rec).Balance.String())

	rec = c.do(http.MethodGet, "/api/v1/companies/"+company.ID+"/trial-balance?as_of=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tb := decode[dto.TrialBalanceResponse](t, rec)
	require.Len(t, tb.Rows, 1)
	assert.Equal(t, "70", tb.TotalDebit.String())

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+b.ID+"/reconciliation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recon := decode[dto.ComparisonResponse](t, rec)
	assert.Len(t, recon.Entries, 2)
	assert.Zero(t, recon.MatchedPairs)

	rec = c.do(http.MethodGet, "/api/v1/companies/"+company.ID+"/recovery?min_days=30&group_prefix=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recovery := decode[dto.RecoveryResponse](t, rec)
	require.Len(t, recovery.Groups, 1)
	assert.Equal(t, "MH12", recovery.Groups[0].Prefix)

	rec = c.do(http.MethodGet, "/api/v1/companies/"+company.ID+"/vouchers?start=2024-06-01&end=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.VoucherResponse](t, rec), 2)
}

func TestNewRouter_ErrorMapping(t *testing.T) {
	c := client{t: t, router: NewRouter(newRouterConfig())}

	rec := c.do(http.MethodPost, "/api/v1/companies/", dto.CreateCompanyRequest{
		Name: "Acme", FinancialYearStart: "2024-04-01", FinancialYearEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	company := decode[dto.CompanyResponse](t, rec)

	rec = c.do(http.MethodPost, "/api/v1/vehicles/", dto.CreateVehicleRequest{CompanyID: company.ID, Number: "V1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	vehicle := decode[dto.VehicleResponse](t, rec)

	voucher := func(number int64, side string) map[string]any {
		return map[string]any{
			"company_id": company.ID, "vehicle_id": vehicle.ID, "voucher_number": number,
			"date": "2024-06-01", "amount": "10", "side": side,
		}
	}

	rec = c.do(http.MethodPost, "/api/v1/vouchers/", voucher(5, "sideways"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "side", decode[dto.ErrorResponse](t, rec).Field)

	rec = c.do(http.MethodPost, "/api/v1/vouchers/", voucher(5, "debit"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.VoucherResponse](t, rec)

	rec = c.do(http.MethodPost, "/api/v1/vouchers/", voucher(5, "credit"))
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate voucher number")

	rec = c.do(http.MethodPatch, "/api/v1/vouchers/"+created.ID, map[string]any{"version": created.Version + 1, "narration": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code, "stale version")

	rec = c.do(http.MethodDelete, "/api/v1/vehicles/"+vehicle.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "vehicle has vouchers")

	rec = c.do(http.MethodGet, "/api/v1/vehicles/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/vehicles/"+vehicle.ID+"/merge", dto.MergeRequest{TargetVehicleID: "ghost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "merge into a missing vehicle")

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+vehicle.ID+"/ledger?start=2024-02-01&end=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/companies/"+company.ID+"/recovery?min_amount=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/vouchers/", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty body")
}

func TestNewRouter_IdempotentVoucherCreate(t *testing.T) {
	store := &recordingIdempotencyStore{values: map[string][]byte{}}
	c := client{t: t, router: NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))}

	rec := c.do(http.MethodPost, "/api/v1/companies/", dto.CreateCompanyRequest{
		Name: "Acme", FinancialYearStart: "2024-04-01", FinancialYearEnd: "2025-03-31",
	})
	company := decode[dto.CompanyResponse](t, rec)
	rec = c.do(http.MethodPost, "/api/v1/vehicles/", dto.CreateVehicleRequest{CompanyID: company.ID, Number: "V1"})
	vehicle := decode[dto.VehicleResponse](t, rec)

	body := map[string]any{"company_id": company.ID, "vehicle_id": vehicle.ID, "date": "2024-06-01", "amount": "10", "side": "debit"}
	first := c.do(http.MethodPost, "/api/v1/vouchers/", body, apimiddleware.IdempotencyKeyHeader, "post-1")
	second := c.do(http.MethodPost, "/api/v1/vouchers/", body, apimiddleware.IdempotencyKeyHeader, "post-1")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))
	assert.Equal(t, decode[dto.VoucherResponse](t, first).ID, decode[dto.VoucherResponse](t, second).ID)

	rec = c.do(http.MethodGet, "/api/v1/vehicles/"+vehicle.ID+"/vouchers", nil)
	assert.Len(t, decode[[]dto.VoucherResponse](t, rec), 1)
}
