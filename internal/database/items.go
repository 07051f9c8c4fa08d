package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"
)

// timestampLayout is fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = `id, name, category, quantity, unit, expirationDate, notes, isChecked, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanItem(row rowScanner) (models.Item, error) {
	var (
		item                 models.Item
		unit                 sql.NullString
		expiration, notes    sql.NullString
		checked              sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.Quantity, &unit,
		&expiration, &notes, &checked, &createdAt, &updatedAt,
	); err != nil {
		return models.Item{}, err
	}

	item.Unit = unit.String
	item.ExpirationDate = expiration.String
	item.Notes = notes.String
	item.IsChecked = checked.Int64 != 0

	var err error
	if item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Item{}, fmt.Errorf("parse createdAt of item %d: %w", item.ID, err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.Item{}, fmt.Errorf("parse updatedAt of item %d: %w", item.ID, err)
	}
	return item, nil
}

// queryItems runs a read query. Storage faults are logged and reported as an
// empty result; only ErrNotInitialized reaches the caller.
func (db *DB) queryItems(ctx context.Context, op, query string, args ...any) ([]models.Item, error) {
	conn, err := db.conn()
	if err != nil {
		return nil, err
	}

	items := []models.Item{}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		db.logger.Error().Err(err).Str("op", op).Msg("items query failed")
		return items, nil
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			db.logger.Error().Err(err).Str("op", op).Msg("failed to scan item")
			return []models.Item{}, nil
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		db.logger.Error().Err(err).Str("op", op).Msg("items rows error")
		return []models.Item{}, nil
	}
	return items, nil
}

// GetAll returns every item, most recently created first.
func (db *DB) GetAll(ctx context.Context) ([]models.Item, error) {
	return db.queryItems(ctx, "get_all",
		`SELECT `+itemColumns+` FROM items ORDER BY createdAt DESC, id DESC`)
}

// GetByCategory returns the items of one category, most recently created first.
func (db *DB) GetByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	return db.queryItems(ctx, "get_by_category",
		`SELECT `+itemColumns+` FROM items WHERE category = ? ORDER BY createdAt DESC, id DESC`,
		categoryID)
}

// Get returns one item or nil when the id is unknown. Faults follow the read
// path policy and also yield nil.
func (db *DB) Get(ctx context.Context, id int64) (*models.Item, error) {
	items, err := db.queryItems(ctx, "get", `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Count returns the number of stored items; faults yield 0.
func (db *DB) Count(ctx context.Context) (int, error) {
	conn, err := db.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		db.logger.Error().Err(err).Str("op", "count").Msg("items query failed")
		return 0, nil
	}
	return n, nil
}

// GetExpired returns items whose expiration date is strictly before today,
// earliest first.
func (db *DB) GetExpired(ctx context.Context) ([]models.Item, error) {
	today := expiry.DateString(db.now())
	return db.queryItems(ctx, "get_expired", `
        SELECT `+itemColumns+` FROM items
        WHERE expirationDate IS NOT NULL
        AND expirationDate < ?
        ORDER BY expirationDate ASC, id ASC`, today)
}

// GetExpiringSoon returns items expiring in [today, today+daysAhead], earliest
// first. Zero means today only; negative daysAhead falls back to the 30 day window.
func (db *DB) GetExpiringSoon(ctx context.Context, daysAhead int) ([]models.Item, error) {
	if daysAhead < 0 {
		daysAhead = models.DefaultLookAheadDays
	}
	now := db.now()
	today := expiry.DateString(now)
	until := expiry.AddDays(now, daysAhead)
	return db.queryItems(ctx, "get_expiring_soon", `
        SELECT `+itemColumns+` FROM items
        WHERE expirationDate IS NOT NULL
        AND expirationDate >= ?
        AND expirationDate <= ?
        ORDER BY expirationDate ASC, id ASC`, today, until)
}

// Add inserts item and returns the new id. createdAt and updatedAt are both
// set to the current time.
func (db *DB) Add(ctx context.Context, item models.NewItem) (int64, error) {
	conn, err := db.conn()
	if err != nil {
		return 0, err
	}

	now := formatTimestamp(db.now())
	result, err := conn.ExecContext(ctx, `
        INSERT INTO items (name, category, quantity, unit, expirationDate, notes, isChecked, createdAt, updatedAt)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Category,
		item.Quantity,
		item.Unit,
		nullableString(item.ExpirationDate),
		nullableString(item.Notes),
		boolToInt(item.IsChecked),
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// Update applies the fields present in patch and always refreshes updatedAt.
// An unknown id is not an error.
func (db *DB) Update(ctx context.Context, id int64, patch models.ItemPatch) error {
	conn, err := db.conn()
	if err != nil {
		return err
	}

	var (
		fields []string
		values []any
	)
	if patch.Name != nil {
		fields = append(fields, "name = ?")
		values = append(values, *patch.Name)
	}
	if patch.Category != nil {
		fields = append(fields, "category = ?")
		values = append(values, *patch.Category)
	}
	if patch.Quantity != nil {
		fields = append(fields, "quantity = ?")
		values = append(values, *patch.Quantity)
	}
	if patch.Unit != nil {
		fields = append(fields, "unit = ?")
		values = append(values, *patch.Unit)
	}
	if patch.ExpirationDate != nil {
		fields = append(fields, "expirationDate = ?")
		values = append(values, nullableString(*patch.ExpirationDate))
	}
	if patch.Notes != nil {
		fields = append(fields, "notes = ?")
		values = append(values, nullableString(*patch.Notes))
	}
	if patch.IsChecked != nil {
		fields = append(fields, "isChecked = ?")
		values = append(values, boolToInt(*patch.IsChecked))
	}

	fields = append(fields, "updatedAt = ?")
	values = append(values, formatTimestamp(db.now()), id)

	query := `UPDATE items SET ` + strings.Join(fields, ", ") + ` WHERE id = ?`
	if _, err := conn.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}
	return nil
}

// Delete removes the item with id; an unknown id is not an error.
func (db *DB) Delete(ctx context.Context, id int64) error {
	conn, err := db.conn()
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return nil
}

// Exists reports whether id is stored. Unlike Get, faults are returned.
func (db *DB) Exists(ctx context.Context, id int64) (bool, error) {
	conn, err := db.conn()
	if err != nil {
		return false, err
	}
	var found bool
	if err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, id).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check item %d: %w", id, err)
	}
	return found, nil
}

// DeleteAll removes every item and returns how many rows were removed.
func (db *DB) DeleteAll(ctx context.Context) (int64, error) {
	conn, err := db.conn()
	if err != nil {
		return 0, err
	}
	result, err := conn.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted items: %w", err)
	}
	return n, nil
}
