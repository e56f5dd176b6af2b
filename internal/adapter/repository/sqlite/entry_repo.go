// Package sqlite implements the repositories on a local SQLite file.
// Amounts are stored as decimal strings and dates as ISO-8601 text.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	sqlitedb "github.com/iho/finledger/internal/infrastructure/sqlite"
	"github.com/iho/finledger/internal/usecase"
)

const (
	dateLayout   = "2006-01-02"
	entryColumns = `id, description, month, year, amount, kind, status, user_id, registered_on`
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db    *sql.DB
	idGen usecase.IDGenerator
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *sql.DB, idGen usecase.IDGenerator) *EntryRepository {
	return &EntryRepository{db: db, idGen: idGen}
}

// Save inserts the entry when it has no ID and updates it otherwise.
func (r *EntryRepository) Save(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if entry.IsPersisted() {
		return r.update(ctx, entry)
	}
	return r.insert(ctx, entry)
}

func (r *EntryRepository) insert(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + entryColumns

	row := r.db.QueryRowContext(ctx, query,
		r.idGen.Generate(),
		entry.Description,
		entry.Month,
		entry.Year,
		entry.Amount.String(),
		string(entry.Kind),
		string(entry.Status),
		entry.OwnerID,
		entry.RegisteredOn.UTC().Format(dateLayout),
	)

	return scanEntry(row)
}

func (r *EntryRepository) update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	query := `
		UPDATE entries
		SET description = ?, month = ?, year = ?, amount = ?, kind = ?, status = ?
		WHERE id = ?
		RETURNING ` + entryColumns

	row := r.db.QueryRowContext(ctx, query,
		entry.Description,
		entry.Month,
		entry.Year,
		entry.Amount.String(),
		string(entry.Kind),
		string(entry.Status),
		entry.ID,
	)

	saved, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return saved, err
}

// Delete removes the entry with the given ID.
func (r *EntryRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entry.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// FindByID retrieves an entry by ID.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return entry, err
}

// FindByFilter lists the entries matching every set field of filter, oldest
// first.
func (r *EntryRepository) FindByFilter(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	where, args := entryFilterClause(filter)

	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func entryFilterClause(filter domain.EntryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.ID != nil {
		conds, args = append(conds, "id = ?"), append(args, *filter.ID)
	}
	if filter.Description != nil {
		conds, args = append(conds, sqlitedb.LowerFunc+`(description) LIKE ? ESCAPE '\'`), append(args, likeContains(*filter.Description))
	}
	if filter.Month != nil {
		conds, args = append(conds, "month = ?"), append(args, *filter.Month)
	}
	if filter.Year != nil {
		conds, args = append(conds, "year = ?"), append(args, *filter.Year)
	}
	if filter.OwnerID != nil {
		conds, args = append(conds, "user_id = ?"), append(args, *filter.OwnerID)
	}
	if filter.Kind != nil {
		conds, args = append(conds, "kind = ?"), append(args, string(*filter.Kind))
	}
	if filter.Status != nil {
		conds, args = append(conds, "status = ?"), append(args, string(*filter.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.Entry, error) {
	var (
		e                    domain.Entry
		amount, kind, status string
		registeredOn         string
	)

	if err := row.Scan(
		&e.ID,
		&e.Description,
		&e.Month,
		&e.Year,
		&amount,
		&kind,
		&status,
		&e.OwnerID,
		&registeredOn,
	); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("entry %s: parse amount %q: %w", e.ID, amount, err)
	}

	date, err := time.Parse(dateLayout, registeredOn)
	if err != nil {
		return nil, fmt.Errorf("entry %s: parse registration date %q: %w", e.ID, registeredOn, err)
	}

	e.Amount = d
	e.Kind = domain.EntryKind(kind)
	e.Status = domain.EntryStatus(status)
	e.RegisteredOn = date

	return &e, nil
}
