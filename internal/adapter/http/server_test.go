package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"outpost-credit/internal/adapter/middleware"
	"outpost-credit/internal/adapter/notify"
	"outpost-credit/internal/adapter/repository/mysql"
	"outpost-credit/internal/adapter/settings"
	"outpost-credit/internal/adapter/world"
	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"
	"outpost-credit/internal/infrastructure/metrics"
	"outpost-credit/internal/testutil/sqlitedb"
	"outpost-credit/internal/usecase/account"
	"outpost-credit/internal/usecase/scheduler"
	"outpost-credit/pkg/id"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func defaultTerms() contract.Terms {
	return contract.Terms{
		InterestRatePerDay:           0.02,
		LatePenaltyRatePerDay:        0.01,
		InterestIntervalDays:         3,
		InterestPaymentWindowHours:   24,
		GraceMissedPayments:          2,
		CollectionsDeadlineHours:     48,
		LoanTermDays:                 30,
		PrincipalReductionPerPayment: 0.1,
		MissedPaymentFee:             50,
		TributeMultiplier:            1.5,
		RaidStrengthMultiplier:       1,
		MaxLoanAmount:                5000,
	}
}

type server struct {
	e     *echo.Echo
	mr    *miniredis.Miniredis
	world *world.Store
}

// newServer wires every adapter the way cmd/api does, on sqlite and miniredis.
func newServer(t *testing.T) *server {
	t.Helper()
	db := sqlitedb.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.New()
	w := world.NewStore(rdb)
	termsStore := settings.NewStore(rdb, defaultTerms())
	guow := mysql.NewGormUoW(db)
	notifier := notify.New(mysql.NewNoticeRepository(db), nil)

	sched := scheduler.New(scheduler.Deps{
		UoW: guow, Terms: termsStore, Notifier: notifier,
		Enforcer: w, Directory: w, Metrics: m,
	})
	runner := scheduler.NewRunner(sched, w, 250, time.Second)
	uc := account.NewUsecase(account.Deps{
		UoW: guow, Terms: termsStore, Treasury: w, Directory: w,
		Notifier: notifier, Clock: w, Metrics: m,
	})

	e := echo.New()
	e.Validator = NewValidator()
	Register(e, Routes{
		Health:      NewHandler(w),
		Contract:    NewContractHandler(uc),
		Settings:    NewSettingsHandler(termsStore),
		Sim:         NewSimHandler(runner, w),
		World:       NewWorldHandler(w),
		Idempotency: middleware.IdempotencyMiddleware(rdb, time.Minute),
		Metrics:     echo.WrapHandler(m.Handler()),
	})
	return &server{e: e, mr: mr, world: w}
}

func (s *server) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// command sends a guarded borrower command with a fresh idempotency key.
func (s *server) command(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, path, body, map[string]string{
		middleware.HeaderIdempotencyKey: id.NewID32(),
		middleware.HeaderRequestAt:      time.Now().UTC().Format(time.RFC3339),
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// setupBorrower places the outpost and the borrower's home.
func (s *server) setupBorrower(t *testing.T, borrowerID string) {
	t.Helper()
	rec := s.do(t, http.MethodPut, "/world/outpost", `{"location_id":"outpost-1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, "/world/borrowers/"+borrowerID+"/home", `{"location_id":"home-`+borrowerID[:4]+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_LoanLifecycle(t *testing.T) {
	s := newServer(t)
	b := id.NewID32()
	s.setupBorrower(t, b)

	rec := s.command(t, "/borrowers/"+b+"/loan", `{"amount":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[account.Receipt](t, rec)
	require.Equal(t, "home", receipt.Purse)
	require.Equal(t, contract.StatusCurrent, receipt.View.Status)

	rec = s.command(t, "/borrowers/"+b+"/loan", `{"amount":100}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "already_borrowed", decode[ErrorResponse](t, rec).Reason)

	// three simulated days
	rec = s.do(t, http.MethodPost, "/sim/advance", `{"units":720}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[scheduler.StepReport](t, rec)
	require.EqualValues(t, contract.TicksPerDay*3, rep.Now)

	rec = s.command(t, "/borrowers/"+b+"/payments/interest", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[account.Receipt](t, rec)
	require.EqualValues(t, 60, paid.Amount)
	require.EqualValues(t, 900, paid.View.Principal)

	rec = s.do(t, http.MethodGet, "/world/borrowers/"+b+"/purses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 940, decode[map[string]int64](t, rec)["home"])

	rec = s.do(t, http.MethodGet, "/borrowers/"+b+"/notices?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[struct {
		Notices []account.NoticeDTO `json:"notices"`
	}](t, rec).Notices
	var titles []string
	for _, n := range list {
		titles = append(titles, n.TitleKey)
	}
	require.ElementsMatch(t, []string{notice.KeyLoanGranted, notice.KeyPaymentDue, notice.KeyInterestPaid}, titles)

	rec = s.do(t, http.MethodGet, "/borrowers/"+b+"/contract", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[account.ContractView](t, rec)
	require.Equal(t, contract.TicksPerDay*6, view.NextInterestDueTick)
}

func TestServer_ContractValidation(t *testing.T) {
	s := newServer(t)
	b := id.NewID32()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad borrower on read", http.MethodGet, "/borrowers/XYZ/contract", "", http.StatusUnprocessableEntity},
		{"zero amount", http.MethodPost, "/borrowers/" + b + "/loan", `{"amount":0}`, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/borrowers/" + b + "/loan", `{"amount":`, http.StatusBadRequest},
		{"limit too large", http.MethodGet, "/borrowers/" + b + "/notices?limit=500", "", http.StatusUnprocessableEntity},
		{"pay without loan", http.MethodPost, "/borrowers/" + b + "/payments/full", "", http.StatusConflict},
		{"tribute not owed", http.MethodPost, "/borrowers/" + b + "/tribute", "", http.StatusConflict},
		{"no creditor outpost", http.MethodPost, "/borrowers/" + b + "/loan", `{"amount":100}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tc.method == http.MethodPost {
				rec = s.command(t, tc.path, tc.body)
			} else {
				rec = s.do(t, tc.method, tc.path, tc.body, nil)
			}
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_CommandsRequireIdempotencyKey(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodPost, "/borrowers/"+id.NewID32()+"/loan", `{"amount":10}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Snapshot(t *testing.T) {
	s := newServer(t)
	b := id.NewID32()
	s.setupBorrower(t, b)
	require.Equal(t, http.StatusCreated, s.command(t, "/borrowers/"+b+"/loan", `{"amount":500}`).Code)

	rec := s.do(t, http.MethodGet, "/borrowers/"+b+"/contract/snapshot", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := rec.Body.String()

	other := id.NewID32()
	put := func(body string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPut, "/borrowers/"+other+"/contract/snapshot", body, map[string]string{
			middleware.HeaderIdempotencyKey: id.NewID32(),
			middleware.HeaderRequestAt:      time.Now().UTC().Format(time.RFC3339),
		})
	}
	rec = put(snap)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[account.ContractView](t, rec)
	require.Equal(t, other, view.BorrowerID)
	require.EqualValues(t, 500, view.Principal)

	rec = put(`not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestServer_Settings(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPut, "/settings/terms", `{"interest_rate_per_day":0.05,"grace_missed_payments":3}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[contract.Terms](t, rec)
	require.Equal(t, 0.05, got.InterestRatePerDay)
	require.Equal(t, 3, got.GraceMissedPayments)

	rec = s.do(t, http.MethodPut, "/settings/terms", `{"grace_missed_payments":2.5}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.True(t, containsFieldMsg(decode[ErrorResponse](t, rec).Details, "GraceMissedPayments", "integer value"))

	rec = s.do(t, http.MethodPut, "/settings/terms", `{"interest_interval_days":1.234}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodDelete, "/settings/terms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0.02, decode[contract.Terms](t, rec).InterestRatePerDay)
}

func TestServer_SimClock(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/sim/advance", `{"units":0}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/sim/advance", `{"units":240}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/sim/clock", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clk := decode[struct {
		Now       int64   `json:"now"`
		Day       float64 `json:"day"`
		UnitTicks int64   `json:"unit_ticks"`
	}](t, rec)
	require.EqualValues(t, contract.TicksPerDay, clk.Now)
	require.Equal(t, 1.0, clk.Day)
	require.EqualValues(t, 250, clk.UnitTicks)

	rec = s.do(t, http.MethodGet, "/health", "", nil)
	require.Contains(t, rec.Body.String(), `"tick":60000`)
}

func TestServer_World(t *testing.T) {
	s := newServer(t)
	b := id.NewID32()
	s.setupBorrower(t, b)

	rec := s.do(t, http.MethodPost, "/world/borrowers/"+b+"/deposit", `{"scope":"party","amount":25}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/world/borrowers/"+b+"/deposit", `{"scope":"bank","amount":25}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, "/world/borrowers/"+b+"/party", `{"location_id":"outpost-1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.command(t, "/borrowers/"+b+"/loan", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "party", decode[account.Receipt](t, rec).Purse)

	purses := decode[map[string]int64](t, s.do(t, http.MethodGet, "/world/borrowers/"+b+"/purses", "", nil))
	require.EqualValues(t, 125, purses["party"])
	require.EqualValues(t, 0, purses["home"])

	home := "home-" + b[:4]
	ok, err := s.world.RequestExpedition(context.Background(), b, 250, home)
	require.NoError(t, err)
	require.True(t, ok)

	rec = s.do(t, http.MethodGet, "/world/locations/"+home+"/hostiles", "", nil)
	require.Contains(t, rec.Body.String(), `"hostiles":3`)
	rec = s.do(t, http.MethodPost, "/world/locations/"+home+"/hostiles/defeat", `{"count":3}`, nil)
	require.Contains(t, rec.Body.String(), `"hostiles":0`)

	rec = s.do(t, http.MethodDelete, "/world/locations/"+home, "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newServer(t)
	b := id.NewID32()
	_ = s.command(t, "/borrowers/"+b+"/payments/full", "")

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `debt_commands_total{command="pay_full",outcome="no_active_contract"} 1`)
}
