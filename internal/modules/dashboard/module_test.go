package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_dash/internal/models"
	scannersvc "turtle_dash/internal/modules/scanner/service"
	"turtle_dash/internal/store"
)

type stubPositions struct {
	summary *models.PositionSummary
	err     error
}

func (s *stubPositions) GetOpen(context.Context, string) (*models.Position, error) { return nil, s.err }
func (s *stubPositions) Create(context.Context, *models.Position) (int64, error)   { return 0, s.err }
func (s *stubPositions) UpdateTrailing(context.Context, int64, float64, float64) (bool, error) {
	return false, s.err
}
func (s *stubPositions) Close(context.Context, int64, time.Time, float64, string, float64) (bool, error) {
	return false, s.err
}
func (s *stubPositions) Summary(context.Context) (*models.PositionSummary, error) {
	return s.summary, s.err
}

func testMux(positions store.Positions) (*http.ServeMux, *scannersvc.Snapshot, *scannersvc.Runner) {
	snap := scannersvc.NewSnapshot()
	runner := scannersvc.NewRunner(nil, snap, nil, nil, nil)
	return NewMux(snap, runner, positions), snap, runner
}

func TestTurtleDataEmptyBeforeFirstScan(t *testing.T) {
	mux, _, _ := testMux(&stubPositions{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/turtle-data", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	// оба ключа на месте даже до первого скана
	assert.NotNil(t, res.System1)
	assert.NotNil(t, res.System2)
	assert.Empty(t, res.System1)
}

func TestTurtleDataServesSnapshot(t *testing.T) {
	mux, snap, _ := testMux(&stubPositions{})
	res := models.EmptyScanResult(false)
	res.System1 = []models.TurtleStock{{Code: "005930", Name: "Samsung", Current: 68400}}
	snap.Set(res)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/turtle-data", nil))

	var got models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.System1, 1)
	assert.Equal(t, "005930", got.System1[0].Code)
	// уровни не считались — в JSON обязаны быть null, не нули
	assert.Nil(t, got.System1[0].StopLoss)
}

func TestRefreshBusyWhileQueued(t *testing.T) {
	mux, _, _ := testMux(&stubPositions{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	assert.Contains(t, rec.Body.String(), "success")

	// раннер никто не разбирает: второй триггер должен отлететь как busy
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	assert.Contains(t, rec.Body.String(), "busy")
}

func TestSummaryDegradedWithoutStore(t *testing.T) {
	mux, _, _ := testMux(&stubPositions{err: store.ErrUnavailable})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions/summary", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestSummaryOK(t *testing.T) {
	mux, _, _ := testMux(&stubPositions{summary: &models.PositionSummary{
		ActivePositions: 2,
		TotalPositions:  5,
		WinRate:         60,
	}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.PositionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(2), got.ActivePositions)
}

func TestIndexServed(t *testing.T) {
	mux, _, _ := testMux(&stubPositions{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
