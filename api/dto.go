/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal model
  from the external contract. Document payloads themselves reuse the
  posting package's JSON shapes; the DTOs here cover everything else.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - posting/documents.go: Document payload shapes
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
	"github.com/inkwell-books/inkwell/reports"
	"github.com/inkwell-books/inkwell/stock"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AccountDTO represents a chart-of-accounts node.
type AccountDTO struct {
	Name     string `json:"name"`
	Parent   string `json:"parent,omitempty"`
	RootType string `json:"rootType"`
	IsGroup  bool   `json:"isGroup"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Parent   string `json:"parent"`
	RootType string `json:"rootType"`
	IsGroup  bool   `json:"isGroup"`
}

// DocumentDTO represents a document shell in list/detail responses.
type DocumentDTO struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Date      string          `json:"date"`
	Status    books.DocStatus `json:"status"`
	Payload   any             `json:"payload,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

// LedgerEntryDTO represents one posted ledger row.
type LedgerEntryDTO struct {
	Name          string          `json:"name"`
	Account       string          `json:"account"`
	Party         string          `json:"party,omitempty"`
	Date          string          `json:"date"`
	ReferenceType string          `json:"referenceType"`
	ReferenceName string          `json:"referenceName"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Reverted      bool            `json:"reverted"`
	Reverts       string          `json:"reverts,omitempty"`
}

// ReportDTO wraps rendered report rows.
type ReportDTO struct {
	Title string        `json:"title"`
	Rows  []reports.Row `json:"rows"`
}

// StockBalanceDTO wraps the stock balance report.
type StockBalanceDTO struct {
	From time.Time          `json:"from"`
	To   time.Time          `json:"to"`
	Rows []stock.BalanceRow `json:"rows"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toLedgerEntryDTO(e books.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		Name:          e.Name,
		Account:       e.Account,
		Party:         e.Party,
		Date:          e.Date.Format("2006-01-02"),
		ReferenceType: e.ReferenceType,
		ReferenceName: e.ReferenceName,
		Debit:         e.Debit,
		Credit:        e.Credit,
		Reverted:      e.Reverted,
		Reverts:       e.Reverts,
	}
}
