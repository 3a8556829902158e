package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"molintel/domain/compound"
	"molintel/internal/cache"
	"molintel/internal/dashboard"
	"molintel/internal/export"
	"molintel/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLoader struct {
	result compound.LoadResult
	calls  int32
}

func (s *stubLoader) Load(ctx context.Context) compound.LoadResult {
	atomic.AddInt32(&s.calls, 1)
	return s.result
}

func newTestServer(t *testing.T, result compound.LoadResult) (*Server, *stubLoader) {
	t.Helper()
	loader := &stubLoader{result: result}
	service := dashboard.NewService(cache.NewMemo(loader, time.Minute))
	server, err := NewServer(service, Options{
		Title:           "Molecular Intelligence Pro",
		Caption:         "Built by **the lab**",
		RefreshInterval: 60 * time.Second,
	})
	require.NoError(t, err)
	return server, loader
}

func referenceResult() compound.LoadResult {
	ds := testkit.ReferenceDataset()
	return compound.LoadResult{Dataset: ds, Rows: ds.Len(), LoadedAt: time.Now()}
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodePass(t *testing.T, rec *httptest.ResponseRecorder) dashboard.PassResult {
	t.Helper()
	var result dashboard.PassResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestIndex_RendersDashboard(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"Molecular Intelligence Pro",
		"Active Records",
		"Avg Mol. Weight",
		"Peak LogP",
		"LIVE",
		"Aspirin",
		"Cholesterol",
		`http-equiv="refresh" content="60"`,
		"<strong>the lab</strong>",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "DEGRADED")
}

func TestIndex_IgnoresBadNumbers(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/?mw_min=heavy&q=caf")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ignored mw_min")
	assert.Contains(t, body, "Caffeine")
	assert.NotContains(t, body, "<td>Aspirin</td>")
}

func TestIndex_DegradedOnLoadFailure(t *testing.T) {
	server, _ := newTestServer(t, compound.LoadResult{
		Dataset:    compound.EmptyDataset(),
		Diagnostic: "Database connection error: connection refused",
	})

	rec := get(t, server, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "DEGRADED")
	assert.Contains(t, body, "connection refused")
	assert.Contains(t, body, "No compounds match")
}

func TestDashboardJSON_FiltersByRange(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/api/dashboard?mw_min=180&mw_max=200")

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodePass(t, rec)
	assert.Equal(t, dashboard.StatusOK, result.Outcome.Status)
	assert.Equal(t, 3, result.Metrics.Count)
	assert.ElementsMatch(t, []string{"Aspirin", "Caffeine", "Glucose"}, result.View.AsDataset().Names())
	assert.True(t, result.Bounds.Valid)
	assert.Equal(t, 46.07, result.Bounds.MW.Lo)
}

func TestDashboardJSON_EmptyNameSetMatchesNothing(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/api/dashboard?names_set=1")

	result := decodePass(t, rec)
	assert.Equal(t, 0, result.Metrics.Count)
	assert.False(t, result.Metrics.MeanMW.Valid)
	assert.Len(t, result.Names, 10)
}

func TestDashboardJSON_RejectsBadNumbers(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/api/dashboard?logp_max=oily")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestDashboardJSON_RefreshReloads(t *testing.T) {
	server, loader := newTestServer(t, referenceResult())

	get(t, server, "/api/dashboard")
	second := decodePass(t, get(t, server, "/api/dashboard"))
	assert.True(t, second.Load.Cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loader.calls))

	third := decodePass(t, get(t, server, "/api/dashboard?refresh=true"))
	assert.False(t, third.Load.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loader.calls))
}

func TestRefresh_InvalidatesAndRedirects(t *testing.T) {
	server, loader := newTestServer(t, referenceResult())
	get(t, server, "/")

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh?q=caf", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?q=caf", rec.Header().Get("Location"))

	get(t, server, "/")
	assert.Equal(t, int32(2), atomic.LoadInt32(&loader.calls))
}

func TestExportCSV_UsesFilteredView(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/export.csv?q=caf")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.CSVFileName)
	assert.Equal(t, "Name,Formula,MW,LogP\nCaffeine,C8H10N4O2,194.19,-0.07\n", rec.Body.String())

	view, err := export.ParseCSV(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, 1, view.Len())
}

func TestExportXLSX(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())

	rec := get(t, server, "/export.xlsx?mw_min=200")

	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Compounds")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Name", "Formula", "MW", "LogP"}, rows[0])
}

func TestRenderMarkdown(t *testing.T) {
	out := string(renderMarkdown("Developed by **Lab** | [docs](https://example.com)\n\n<script>alert(1)</script>"))

	assert.Contains(t, out, "<strong>Lab</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "<script>")
	assert.Empty(t, renderMarkdown("  "))
}

func TestSelectedTheme(t *testing.T) {
	assert.Equal(t, "Viridis", selectedTheme(map[string][]string{"theme": {"viridis"}}))
	assert.Equal(t, "Plasma", selectedTheme(map[string][]string{"theme": {"Rainbow"}}))
	assert.Equal(t, "Plasma", selectedTheme(nil))
}

func TestStart_ReturnsAfterCancel(t *testing.T) {
	server, _ := newTestServer(t, referenceResult())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
