package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/workers"
)

type testApp struct {
	router  *gin.Engine
	svc     *services.TrackerService
	records *repository.InMemoryRecordStore
}

type appOption func(*adapterHTTP.RouterDependencies)

func setupRouter(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := workers.NewLoop(16, nil)
	loop.Start(ctx)

	trackers := repository.NewInMemoryTrackerStore()
	records := repository.NewInMemoryRecordStore()
	ledger := services.NewCompletionLedger(records)
	svc := services.NewTrackerService(trackers, ledger, nil)
	stats := services.NewStatsService(trackers, records)

	deps := adapterHTTP.RouterDependencies{
		TrackerHandler:    adapterHTTP.NewTrackerHandler(svc, loop),
		CompletionHandler: adapterHTTP.NewCompletionHandler(svc, ledger, loop),
		BoardHandler:      adapterHTTP.NewBoardHandler(svc, loop),
		StatsHandler:      adapterHTTP.NewStatsHandler(stats, loop),
		StartTime:         time.Now(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testApp{
		router:  adapterHTTP.NewRouter(deps),
		svc:     svc,
		records: records,
	}
}

func (a *testApp) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// createTracker goes through the API and returns the stored tracker.
func (a *testApp) createTracker(t *testing.T, body string) domain.Tracker {
	t.Helper()

	w := a.do(http.MethodPost, "/api/v1/trackers", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tracker domain.Tracker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tracker))
	return tracker
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func yesterday() string {
	return domain.DayKey(time.Now().AddDate(0, 0, -1))
}

func today() string {
	return domain.DayKey(time.Now())
}

func weekday() int {
	return int(domain.DayOf(time.Now()).Weekday())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
