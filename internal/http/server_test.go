package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgat/internal/services"
	"budgat/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ledger := services.NewLedgerService(repo, repo, nil)
	reports := services.NewReportService(repo, repo, 6)
	return NewServer(":0", ledger, reports, 10*time.Second, 15*time.Second)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/api/budget", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/categories",
		`{"name":"Groceries","monthly_budget":"300","kind":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created["id"])

	rec = doJSON(t, s, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Groceries")

	rec = doJSON(t, s, http.MethodDelete, "/api/categories/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-03-10","category":"Groceries","amount":"42,50"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "description")
}

func TestBudgetViewOverScenario(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/categories",
		`{"name":"Groceries","monthly_budget":"300","kind":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-01-15","description":"Shop","category":"Groceries","amount":"320"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/budget?month=2024-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Categories []struct {
			Available string `json:"Available"`
			Over      bool   `json:"Over"`
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Categories, 1)
	assert.Equal(t, "-20", view.Categories[0].Available)
	assert.True(t, view.Categories[0].Over)
}

func TestBudgetViewRejectsBadMonth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/budget?month=March", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransactionPathID(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportExportRoundTrip(t *testing.T) {
	s := newTestServer(t)

	csvBody := "WANNEER,WAT,HOEVEEL,CATEGORIE,OPMERKING\n" +
		"2024-03-10,Albert Heijn,\"42,50\",Groceries,weekly\n" +
		"2024-03-05,Salary,-1000,Inkomsten,\n"

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":2`)

	rec = doJSON(t, s, http.MethodGet, "/api/transactions/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Albert Heijn", "export is newest first")
	assert.Contains(t, lines[2], "Salary")
}

func TestImportRejectsInvalidRowAtomically(t *testing.T) {
	s := newTestServer(t)

	csvBody := "WANNEER,WAT,HOEVEEL,CATEGORIE,OPMERKING\n" +
		"2024-03-10,,10,Groceries,\n"

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}
