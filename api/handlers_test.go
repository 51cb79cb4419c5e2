/*
handlers_test.go - Unit tests for API handlers

Tests the full HTTP surface against the in-memory store: account
creation, the document lifecycle endpoints, and the error-to-status
mapping.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-books/inkwell/books"
	memstore "github.com/inkwell-books/inkwell/books/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	store  *memstore.Memory
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.NewMemory()
	h := NewHandler(st, books.DefaultSettings())
	return &fixture{store: st, router: NewRouter(h)}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seedAccounts(t *testing.T) {
	t.Helper()
	accounts := []CreateAccountRequest{
		{Name: "Current Assets", RootType: "Asset", IsGroup: true},
		{Name: "Debtors", Parent: "Current Assets", RootType: "Asset"},
		{Name: "Income", RootType: "Income", IsGroup: true},
		{Name: "Sales", Parent: "Income", RootType: "Income"},
	}
	for _, a := range accounts {
		rec := f.do(t, http.MethodPost, "/api/accounts", a)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func invoicePayload(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"date":         "2026-04-01T00:00:00Z",
		"party":        "Acme",
		"partyAccount": "Debtors",
		"lines": []map[string]any{
			{"account": "Sales", "quantity": "1", "rate": "700"},
		},
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAndListAccounts(t *testing.T) {
	f := newFixture(t)
	f.seedAccounts(t)

	rec := f.do(t, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []AccountDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 4)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	f.seedAccounts(t)

	// Unknown root type.
	rec := f.do(t, http.MethodPost, "/api/accounts", CreateAccountRequest{Name: "X", RootType: "Wealth"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Root type must match the parent's.
	rec = f.do(t, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Name: "Misfiled", Parent: "Current Assets", RootType: "Income",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Parent must be a group.
	rec = f.do(t, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Name: "Child", Parent: "Debtors", RootType: "Asset",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing parent is 404.
	rec = f.do(t, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Name: "Orphan", Parent: "Ghost", RootType: "Asset",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Duplicates conflict with the stored chart.
	rec = f.do(t, http.MethodPost, "/api/accounts", CreateAccountRequest{Name: "Debtors", Parent: "Current Assets", RootType: "Asset"})
	assert.NotEqual(t, http.StatusCreated, rec.Code)
}

// =============================================================================
// DOCUMENT LIFECYCLE
// =============================================================================

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.seedAccounts(t)

	// Create draft.
	rec := f.do(t, http.MethodPost, "/api/documents/Invoice", invoicePayload("INV-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto DocumentDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, books.StatusDraft, dto.Status)

	// Submit.
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Ledger now has the balanced pair.
	rec = f.do(t, http.MethodGet, "/api/ledger?referenceType=Invoice&referenceName=INV-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []LedgerEntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	// Cancel writes the mirrors.
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/ledger?referenceType=Invoice&referenceName=INV-1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 4)

	// Delete cascades everything away.
	rec = f.do(t, http.MethodDelete, "/api/documents/Invoice/INV-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/documents/Invoice/INV-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycleGuardsMapToConflict(t *testing.T) {
	f := newFixture(t)
	f.seedAccounts(t)

	rec := f.do(t, http.MethodPost, "/api/documents/Invoice", invoicePayload("INV-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Cancel of a draft is a lifecycle violation.
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Submitting twice conflicts.
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Deleting a submitted document conflicts.
	rec = f.do(t, http.MethodDelete, "/api/documents/Invoice/INV-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnknownDocumentKindRejected(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/documents/Voucher", map[string]any{"name": "V-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownDocumentIsNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/documents/Invoice/INV-GHOST", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestBalanceSheetEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedAccounts(t)

	rec := f.do(t, http.MethodPost, "/api/documents/Invoice", invoicePayload("INV-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/documents/Invoice/INV-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/reports/balance-sheet?dates=2026-04-30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report ReportDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Balance Sheet", report.Title)

	found := false
	for _, row := range report.Rows {
		if len(row.Cells) > 1 && row.Cells[0].Value == "Total Asset" {
			found = true
			assert.Equal(t, "700.00", row.Cells[1].Value)
		}
	}
	assert.True(t, found, "Total Asset row missing")
}

func TestReportsRejectMissingParameters(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/api/reports/balance-sheet",
		"/api/reports/profit-and-loss",
		"/api/reports/trial-balance?from=2026-04-01",
		"/api/reports/stock-balance?to=2026-04-30",
	} {
		rec := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("path %s", path))
	}
}
