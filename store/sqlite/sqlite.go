/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements books.Store and books.TxStore using SQLite. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

IMMUTABILITY ENFORCEMENT:
  Ledger and stock rows are write-once facts:
  - The only UPDATE on ledger_entries flips the reverted flag.
  - The only DELETEs are the cascade when an owning document is deleted.

KEY TABLES:
  ledger_entries: Immutable debit/credit facts
  stock_entries:  Immutable signed stock movements; rowid doubles as the
                  creation sequence used by the replay order
  accounts:       Chart of accounts
  documents:      Transactional document shells (status + JSON payload)

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers,
  single writer, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/inkwell.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - books/store.go: Interface definitions
  - books/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// querier abstracts *sql.DB and *sql.Tx so every method works both
// standalone and inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements books.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

// New opens (and migrates) a SQLite store at the given path. Use
// ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	st := &Store{db: db, q: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Accounting ledger (write-once facts)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		name TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		party TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		reference_type TEXT NOT NULL,
		reference_name TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		reverted INTEGER NOT NULL DEFAULT 0,
		reverts TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_account_date
		ON ledger_entries(account, date);
	CREATE INDEX IF NOT EXISTS idx_ledger_reference
		ON ledger_entries(reference_type, reference_name);

	-- Stock ledger; rowid is the creation sequence
	CREATE TABLE IF NOT EXISTS stock_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		item TEXT NOT NULL,
		location TEXT NOT NULL,
		batch TEXT NOT NULL DEFAULT '',
		serial_number TEXT NOT NULL DEFAULT '',
		rate TEXT NOT NULL,
		quantity TEXT NOT NULL,
		reference_type TEXT NOT NULL,
		reference_name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stock_item_location_date
		ON stock_entries(item, location, date);
	CREATE INDEX IF NOT EXISTS idx_stock_reference
		ON stock_entries(reference_type, reference_name);

	-- Chart of accounts
	CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY,
		parent TEXT NOT NULL DEFAULT '',
		root_type TEXT NOT NULL,
		is_group INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent);

	-- Transactional document shells
	CREATE TABLE IF NOT EXISTS documents (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		data BLOB,
		created_at TEXT NOT NULL,
		PRIMARY KEY (kind, name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

func (s *Store) InsertLedgerEntries(ctx context.Context, entries []books.LedgerEntry) error {
	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO ledger_entries
				(name, account, party, date, reference_type, reference_name,
				 debit, credit, reverted, reverts, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Name, e.Account, e.Party, e.Date.Format(time.RFC3339Nano),
			e.ReferenceType, e.ReferenceName,
			e.Debit.String(), e.Credit.String(),
			boolToInt(e.Reverted), e.Reverts, createdAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return books.ErrDuplicateName
			}
			return fmt.Errorf("inserting ledger entry %s: %w", e.Name, err)
		}
	}
	return nil
}

func (s *Store) LedgerEntries(ctx context.Context, f books.LedgerFilter) ([]books.LedgerEntry, error) {
	query := `
		SELECT name, account, party, date, reference_type, reference_name,
		       debit, credit, reverted, reverts, created_at
		FROM ledger_entries`
	var conds []string
	var args []any
	if f.Account != "" {
		conds = append(conds, "account = ?")
		args = append(args, f.Account)
	}
	if f.Party != "" {
		conds = append(conds, "party = ?")
		args = append(args, f.Party)
	}
	if f.ReferenceType != "" {
		conds = append(conds, "reference_type = ?")
		args = append(args, f.ReferenceType)
	}
	if f.ReferenceName != "" {
		conds = append(conds, "reference_name = ?")
		args = append(args, f.ReferenceName)
	}
	if f.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.Format(time.RFC3339Nano))
	}
	if f.To != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.Format(time.RFC3339Nano))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, name"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	var result []books.LedgerEntry
	for rows.Next() {
		var e books.LedgerEntry
		var date, debit, credit, createdAt string
		var reverted int
		if err := rows.Scan(&e.Name, &e.Account, &e.Party, &date,
			&e.ReferenceType, &e.ReferenceName, &debit, &credit,
			&reverted, &e.Reverts, &createdAt); err != nil {
			return nil, err
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parsing ledger date: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing ledger created_at: %w", err)
		}
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parsing debit: %w", err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parsing credit: %w", err)
		}
		e.Reverted = reverted != 0
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) MarkReverted(ctx context.Context, name string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE ledger_entries SET reverted = 1 WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &books.NotFoundError{Kind: "LedgerEntry", Name: name}
	}
	return nil
}

func (s *Store) DeleteLedgerEntriesByReference(ctx context.Context, refType, refName string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE reference_type = ? AND reference_name = ?`,
		refType, refName)
	return err
}

// =============================================================================
// STOCK ENTRIES
// =============================================================================

func (s *Store) InsertStockEntries(ctx context.Context, entries []books.StockEntry) error {
	for _, e := range entries {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO stock_entries
				(name, date, item, location, batch, serial_number,
				 rate, quantity, reference_type, reference_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Name, e.Date.Format(time.RFC3339Nano), e.Item, e.Location,
			e.Batch, e.SerialNumber, e.Rate.String(), e.Quantity.String(),
			e.ReferenceType, e.ReferenceName,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return books.ErrDuplicateName
			}
			return fmt.Errorf("inserting stock entry %s: %w", e.Name, err)
		}
	}
	return nil
}

func (s *Store) StockEntries(ctx context.Context, f books.StockFilter) ([]books.StockEntry, error) {
	query := `
		SELECT seq, name, date, item, location, batch, serial_number,
		       rate, quantity, reference_type, reference_name
		FROM stock_entries`
	var conds []string
	var args []any
	if f.Item != "" {
		conds = append(conds, "item = ?")
		args = append(args, f.Item)
	}
	if f.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, f.Location)
	}
	if f.OnOrBefore != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.OnOrBefore.Format(time.RFC3339Nano))
	}
	if f.ExcludeReference != "" {
		conds = append(conds, "reference_name != ?")
		args = append(args, f.ExcludeReference)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, seq, name"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock entries: %w", err)
	}
	defer rows.Close()

	var result []books.StockEntry
	for rows.Next() {
		var e books.StockEntry
		var date, rate, quantity string
		if err := rows.Scan(&e.Seq, &e.Name, &date, &e.Item, &e.Location,
			&e.Batch, &e.SerialNumber, &rate, &quantity,
			&e.ReferenceType, &e.ReferenceName); err != nil {
			return nil, err
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parsing stock date: %w", err)
		}
		if e.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("parsing rate: %w", err)
		}
		if e.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parsing quantity: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) DeleteStockEntriesByReference(ctx context.Context, refType, refName string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM stock_entries WHERE reference_type = ? AND reference_name = ?`,
		refType, refName)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) InsertAccount(ctx context.Context, a books.Account) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (name, parent, root_type, is_group)
		VALUES (?, ?, ?, ?)`,
		a.Name, a.Parent, string(a.RootType), boolToInt(a.IsGroup))
	if err != nil && isUniqueViolation(err) {
		return books.ErrDuplicateName
	}
	return err
}

func (s *Store) Account(ctx context.Context, name string) (*books.Account, error) {
	var a books.Account
	var rootType string
	var isGroup int
	err := s.q.QueryRowContext(ctx, `
		SELECT name, parent, root_type, is_group FROM accounts WHERE name = ?`,
		name).Scan(&a.Name, &a.Parent, &rootType, &isGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &books.NotFoundError{Kind: "Account", Name: name}
	}
	if err != nil {
		return nil, err
	}
	a.RootType = books.RootType(rootType)
	a.IsGroup = isGroup != 0
	return &a, nil
}

func (s *Store) Accounts(ctx context.Context) ([]books.Account, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT name, parent, root_type, is_group FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []books.Account
	for rows.Next() {
		var a books.Account
		var rootType string
		var isGroup int
		if err := rows.Scan(&a.Name, &a.Parent, &rootType, &isGroup); err != nil {
			return nil, err
		}
		a.RootType = books.RootType(rootType)
		a.IsGroup = isGroup != 0
		result = append(result, a)
	}
	return result, rows.Err()
}

// =============================================================================
// DOCUMENT RECORDS
// =============================================================================

func (s *Store) InsertDocument(ctx context.Context, d books.DocumentRecord) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (kind, name, date, status, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Kind, d.Name, d.Date.Format(time.RFC3339Nano), string(d.Status),
		d.Data, createdAt.Format(time.RFC3339Nano))
	if err != nil && isUniqueViolation(err) {
		return books.ErrDuplicateName
	}
	return err
}

func (s *Store) Document(ctx context.Context, kind, name string) (*books.DocumentRecord, error) {
	var d books.DocumentRecord
	var date, status, createdAt string
	err := s.q.QueryRowContext(ctx, `
		SELECT kind, name, date, status, data, created_at
		FROM documents WHERE kind = ? AND name = ?`,
		kind, name).Scan(&d.Kind, &d.Name, &date, &status, &d.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &books.NotFoundError{Kind: kind, Name: name}
	}
	if err != nil {
		return nil, err
	}
	if d.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
		return nil, fmt.Errorf("parsing document date: %w", err)
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing document created_at: %w", err)
	}
	d.Status = books.DocStatus(status)
	return &d, nil
}

func (s *Store) Documents(ctx context.Context, kind string) ([]books.DocumentRecord, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT kind, name, date, status, data, created_at
		FROM documents WHERE kind = ? ORDER BY name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []books.DocumentRecord
	for rows.Next() {
		var d books.DocumentRecord
		var date, status, createdAt string
		if err := rows.Scan(&d.Kind, &d.Name, &date, &status, &d.Data, &createdAt); err != nil {
			return nil, err
		}
		if d.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parsing document date: %w", err)
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing document created_at: %w", err)
		}
		d.Status = books.DocStatus(status)
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) UpdateDocumentStatus(ctx context.Context, kind, name string, status books.DocStatus) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE documents SET status = ? WHERE kind = ? AND name = ?`,
		string(status), kind, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &books.NotFoundError{Kind: kind, Name: name}
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, kind, name string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND name = ?`, kind, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &books.NotFoundError{Kind: kind, Name: name}
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, kind, name string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE kind = ? AND name = ?`, kind, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn against a transactional view. Rolled back if fn
// fails, committed otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(books.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	view := &Store{db: s.db, q: tx}
	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
