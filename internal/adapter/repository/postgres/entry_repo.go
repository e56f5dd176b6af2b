package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

const entryColumns = `id, description, month, year, amount, kind, status, user_id, registered_on`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db      DBTX
	idGen   usecase.IDGenerator
	retrier *Retrier
}

// NewEntryRepository creates a new EntryRepository. A nil retrier runs every
// statement once.
func NewEntryRepository(db DBTX, idGen usecase.IDGenerator, retrier *Retrier) *EntryRepository {
	return &EntryRepository{
		db:      db,
		idGen:   idGen,
		retrier: retrier,
	}
}

// Save inserts the entry when it has no ID and updates it otherwise. Updates
// never touch the owner or the registration date.
func (r *EntryRepository) Save(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	var saved *domain.Entry

	err := r.retrier.Retry(ctx, func() error {
		var err error
		if entry.IsPersisted() {
			saved, err = r.update(ctx, entry)
		} else {
			saved, err = r.insert(ctx, entry)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *EntryRepository) insert(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + entryColumns

	row := r.db.QueryRow(ctx, query,
		r.idGen.Generate(),
		entry.Description,
		entry.Month,
		entry.Year,
		decimalToNumeric(entry.Amount),
		string(entry.Kind),
		string(entry.Status),
		entry.OwnerID,
		entry.RegisteredOn,
	)

	return scanEntry(row)
}

func (r *EntryRepository) update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	query := `
		UPDATE entries
		SET description = $2, month = $3, year = $4, amount = $5, kind = $6, status = $7
		WHERE id = $1
		RETURNING ` + entryColumns

	row := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.Description,
		entry.Month,
		entry.Year,
		decimalToNumeric(entry.Amount),
		string(entry.Kind),
		string(entry.Status),
	)

	saved, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return saved, err
}

// Delete removes the entry with the given ID.
func (r *EntryRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM entries WHERE id = $1`, entry.ID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// FindByID retrieves an entry by ID.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return entry, err
}

// FindByFilter lists the entries matching every set field of filter, oldest
// first.
func (r *EntryRepository) FindByFilter(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	where, args := entryFilterClause(filter)
	query := `SELECT ` + entryColumns + ` FROM entries` + where + ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
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

// entryFilterClause renders the WHERE clause for filter with positional
// parameters.
func entryFilterClause(filter domain.EntryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ID != nil {
		add("id = $%d", *filter.ID)
	}
	if filter.Description != nil {
		add(`LOWER(description) LIKE $%d ESCAPE '\'`, likeContains(*filter.Description))
	}
	if filter.Month != nil {
		add("month = $%d", *filter.Month)
	}
	if filter.Year != nil {
		add("year = $%d", *filter.Year)
	}
	if filter.OwnerID != nil {
		add("user_id = $%d", *filter.OwnerID)
	}
	if filter.Kind != nil {
		add("kind = $%d", string(*filter.Kind))
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e            domain.Entry
		amount       pgtype.Numeric
		kind, status string
		registeredOn time.Time
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

	e.Amount = numericToDecimal(amount)
	e.Kind = domain.EntryKind(kind)
	e.Status = domain.EntryStatus(status)
	e.RegisteredOn = domain.DateOnly(registeredOn)

	return &e, nil
}
