/*
handlers.go - HTTP API handlers

PURPOSE:
  Exposes the accounting core over REST. Handlers parse requests, call
  the domain logic (lifecycle, report builders), serialize responses,
  and map domain errors to HTTP status codes.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                          List the chart of accounts
    POST   /api/accounts                          Create an account

  Documents:
    POST   /api/documents/{kind}                  Create a draft
    GET    /api/documents/{kind}                  List documents of a kind
    GET    /api/documents/{kind}/{name}           Get one document
    POST   /api/documents/{kind}/{name}/submit    Draft -> Submitted
    POST   /api/documents/{kind}/{name}/cancel    Submitted -> Cancelled
    DELETE /api/documents/{kind}/{name}           Delete (Draft/Cancelled only)

  Ledger and reports:
    GET    /api/ledger                            Filtered ledger entries
    GET    /api/reports/balance-sheet             ?dates=YYYY-MM-DD,...
    GET    /api/reports/profit-and-loss           ?from=&to=
    GET    /api/reports/trial-balance             ?from=&to=
    GET    /api/reports/general-ledger            ?account=&party=&from=&to=
    GET    /api/reports/stock-balance             ?from=&to=&item=&location=

ERROR HANDLING:
  - 400: Validation errors, invalid input, imbalanced postings
  - 404: Missing accounts/documents
  - 409: Lifecycle guard violations (submit non-draft, delete submitted)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-books/inkwell/books"
	"github.com/inkwell-books/inkwell/posting"
	"github.com/inkwell-books/inkwell/reports"
	"github.com/inkwell-books/inkwell/stock"
)

const dateParam = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     books.TxStore
	Settings  books.Settings
	Lifecycle *posting.Lifecycle
}

// NewHandler creates a handler over the given store and settings.
func NewHandler(st books.TxStore, settings books.Settings) *Handler {
	return &Handler{
		Store:     st,
		Settings:  settings,
		Lifecycle: posting.NewLifecycle(st, settings),
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the chart of accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.Accounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = AccountDTO{Name: a.Name, Parent: a.Parent, RootType: string(a.RootType), IsGroup: a.IsGroup}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount adds a node to the chart of accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Account name is required", nil)
		return
	}
	rootType := books.RootType(req.RootType)
	if !rootType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown root type %q", req.RootType), nil)
		return
	}
	if req.Parent != "" {
		parent, err := h.Store.Account(r.Context(), req.Parent)
		if err != nil {
			writeDomainError(w, "Parent account lookup failed", err)
			return
		}
		if parent.RootType != rootType {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Root type %q does not match parent's %q", rootType, parent.RootType), nil)
			return
		}
		if !parent.IsGroup {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Parent account %q is not a group", req.Parent), nil)
			return
		}
	}

	account := books.Account{Name: req.Name, Parent: req.Parent, RootType: rootType, IsGroup: req.IsGroup}
	if err := h.Store.InsertAccount(r.Context(), account); err != nil {
		writeDomainError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, AccountDTO{
		Name: account.Name, Parent: account.Parent, RootType: string(account.RootType), IsGroup: account.IsGroup,
	})
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// CreateDocument stores a new draft of the given kind.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	doc, err := posting.Decode(kind, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document payload", err)
		return
	}
	if doc.DocName() == "" {
		writeError(w, http.StatusBadRequest, "Document name is required", nil)
		return
	}

	rec, err := posting.Record(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode document", err)
		return
	}
	if err := h.Store.InsertDocument(r.Context(), rec); err != nil {
		writeDomainError(w, "Failed to create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(rec, doc))
}

// ListDocuments returns every document of a kind.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	recs, err := h.Store.Documents(r.Context(), kind)
	if err != nil {
		writeDomainError(w, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toDocumentDTO(rec, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDocument returns one document including its payload.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	rec, doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(*rec, doc))
}

// SubmitDocument runs the Draft -> Submitted transition.
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	rec, doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if err := h.Lifecycle.Submit(r.Context(), doc); err != nil {
		writeDomainError(w, "Submit failed", err)
		return
	}
	rec.Status = books.StatusSubmitted
	writeJSON(w, http.StatusOK, toDocumentDTO(*rec, doc))
}

// CancelDocument runs the Submitted -> Cancelled transition.
func (h *Handler) CancelDocument(w http.ResponseWriter, r *http.Request) {
	rec, doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if err := h.Lifecycle.Cancel(r.Context(), doc); err != nil {
		writeDomainError(w, "Cancel failed", err)
		return
	}
	rec.Status = books.StatusCancelled
	writeJSON(w, http.StatusOK, toDocumentDTO(*rec, doc))
}

// DeleteDocument deletes a Draft or Cancelled document and its entries.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	name := chi.URLParam(r, "name")
	if err := h.Lifecycle.Delete(r.Context(), kind, name); err != nil {
		writeDomainError(w, "Delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) (*books.DocumentRecord, posting.Document, bool) {
	kind := chi.URLParam(r, "kind")
	name := chi.URLParam(r, "name")

	rec, err := h.Store.Document(r.Context(), kind, name)
	if err != nil {
		writeDomainError(w, "Document lookup failed", err)
		return nil, nil, false
	}
	doc, err := posting.Decode(rec.Kind, rec.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode stored document", err)
		return nil, nil, false
	}
	return rec, doc, true
}

// =============================================================================
// LEDGER AND REPORT HANDLERS
// =============================================================================

// ListLedgerEntries returns filtered ledger rows.
func (h *Handler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	f := books.LedgerFilter{
		Account:       r.URL.Query().Get("account"),
		Party:         r.URL.Query().Get("party"),
		ReferenceType: r.URL.Query().Get("referenceType"),
		ReferenceName: r.URL.Query().Get("referenceName"),
	}
	var ok bool
	if f.From, ok = optionalDate(w, r, "from"); !ok {
		return
	}
	if f.To, ok = optionalDate(w, r, "to"); !ok {
		return
	}

	entries, err := h.Store.LedgerEntries(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query ledger", err)
		return
	}
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// BalanceSheet renders the balance sheet as at each requested date.
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("dates")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'dates' is required", nil)
		return
	}
	var dates []time.Time
	for _, part := range strings.Split(raw, ",") {
		d, err := time.Parse(dateParam, strings.TrimSpace(part))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q", part), err)
			return
		}
		dates = append(dates, endOfDay(d))
	}

	rows, err := reports.BalanceSheet(r.Context(), h.Store, h.Settings, dates)
	if err != nil {
		writeDomainError(w, "Failed to build balance sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDTO{Title: "Balance Sheet", Rows: rows})
}

// ProfitAndLoss renders income and expense over one period.
func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	from, to, ok := requiredRange(w, r)
	if !ok {
		return
	}
	rows, err := reports.ProfitAndLoss(r.Context(), h.Store, h.Settings,
		[]reports.DateRange{{From: from, To: to}})
	if err != nil {
		writeDomainError(w, "Failed to build profit and loss", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDTO{Title: "Profit and Loss", Rows: rows})
}

// TrialBalance renders per-account opening/period/closing columns.
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	from, to, ok := requiredRange(w, r)
	if !ok {
		return
	}
	rows, err := reports.TrialBalance(r.Context(), h.Store, h.Settings, from, to)
	if err != nil {
		writeDomainError(w, "Failed to build trial balance", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDTO{Title: "Trial Balance", Rows: rows})
}

// GeneralLedger renders a filtered entry listing with running totals.
func (h *Handler) GeneralLedger(w http.ResponseWriter, r *http.Request) {
	f := books.LedgerFilter{
		Account: r.URL.Query().Get("account"),
		Party:   r.URL.Query().Get("party"),
	}
	var ok bool
	if f.From, ok = optionalDate(w, r, "from"); !ok {
		return
	}
	if f.To, ok = optionalDate(w, r, "to"); !ok {
		return
	}

	rows, err := reports.GeneralLedger(r.Context(), h.Store, f)
	if err != nil {
		writeDomainError(w, "Failed to build general ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDTO{Title: "General Ledger", Rows: rows})
}

// StockBalance renders per-slot stock quantities and values.
func (h *Handler) StockBalance(w http.ResponseWriter, r *http.Request) {
	from, to, ok := requiredRange(w, r)
	if !ok {
		return
	}
	rows, err := stock.BalanceReport(r.Context(), h.Store, h.Settings.CostingMethod, stock.BalanceFilter{
		Item:     r.URL.Query().Get("item"),
		Location: r.URL.Query().Get("location"),
		From:     from,
		To:       to,
	})
	if err != nil {
		writeDomainError(w, "Failed to build stock balance", err)
		return
	}
	writeJSON(w, http.StatusOK, StockBalanceDTO{From: from, To: to, Rows: rows})
}

// =============================================================================
// HELPERS
// =============================================================================

func toDocumentDTO(rec books.DocumentRecord, doc posting.Document) DocumentDTO {
	dto := DocumentDTO{
		Name:      rec.Name,
		Kind:      rec.Kind,
		Date:      rec.Date.Format(dateParam),
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	if doc != nil {
		dto.Payload = doc
	}
	return dto
}

func optionalDate(w http.ResponseWriter, r *http.Request, key string) (*time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(dateParam, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s date %q", key, raw), err)
		return nil, false
	}
	if key == "to" {
		d = endOfDay(d)
	}
	return &d, true
}

func requiredRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse(dateParam, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'from' must be YYYY-MM-DD", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateParam, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'to' must be YYYY-MM-DD", err)
		return time.Time{}, time.Time{}, false
	}
	return from, endOfDay(to), true
}

// endOfDay widens an inclusive date bound to cover intraday timestamps.
func endOfDay(d time.Time) time.Time {
	return d.Add(24*time.Hour - time.Nanosecond)
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	var bucketErr *books.BucketingError
	switch {
	case books.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case books.IsLifecycleError(err):
		writeError(w, http.StatusConflict, message, err)
	case books.IsClientError(err), errors.As(err, &bucketErr):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
