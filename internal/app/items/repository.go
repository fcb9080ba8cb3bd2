package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/todolite/service/internal/contracts"
)

var ErrNotFound = errors.New("item not found")

// Timestamps are persisted in the legacy text layout so rows stay readable
// by tooling that predates this service.
const createItemsTableSQL = `
CREATE TABLE IF NOT EXISTS todo_items (
  item_id text PRIMARY KEY,
  title text NOT NULL DEFAULT '',
  content text NOT NULL DEFAULT '',
  created_date text NOT NULL,
  updated_date text,
  is_done boolean NOT NULL DEFAULT false,
  is_archived boolean NOT NULL DEFAULT false,
  is_deleted boolean NOT NULL DEFAULT false
)`

const putItemSQL = `
INSERT INTO todo_items (
  item_id, title, content, created_date, updated_date,
  is_done, is_archived, is_deleted
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (item_id) DO UPDATE
SET title = EXCLUDED.title,
    content = EXCLUDED.content,
    created_date = EXCLUDED.created_date,
    updated_date = EXCLUDED.updated_date,
    is_done = EXCLUDED.is_done,
    is_archived = EXCLUDED.is_archived,
    is_deleted = EXCLUDED.is_deleted
`

const getItemSQL = `
SELECT item_id, title, content, created_date, updated_date,
       is_done, is_archived, is_deleted
FROM todo_items
WHERE item_id = $1
`

const scanItemsSQL = `
SELECT item_id, title, content, created_date, updated_date,
       is_done, is_archived, is_deleted
FROM todo_items
`

// The partial updates below intentionally match zero rows when the key is
// absent: update-of-missing-item is a silent no-op, not an error.
const setTitleContentSQL = `
UPDATE todo_items
SET title = $2, content = $3, updated_date = $4
WHERE item_id = $1
`

const markDoneSQL = `
UPDATE todo_items
SET is_done = true, updated_date = $2
WHERE item_id = $1
`

const markArchivedSQL = `
UPDATE todo_items
SET is_archived = true, updated_date = $2
WHERE item_id = $1
`

const markDeletedSQL = `
UPDATE todo_items
SET is_deleted = true, updated_date = $2
WHERE item_id = $1
`

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, createItemsTableSQL)
	return err
}

func (r *Repository) Put(ctx context.Context, item Item) error {
	var updated *string
	if item.UpdatedAt != nil {
		s := contracts.FormatTimestamp(*item.UpdatedAt)
		updated = &s
	}
	_, err := r.Pool.Exec(ctx, putItemSQL,
		item.ItemID,
		item.Title,
		item.Content,
		contracts.FormatTimestamp(item.CreatedAt),
		updated,
		item.IsDone,
		item.IsArchived,
		item.IsDeleted,
	)
	return err
}

func (r *Repository) Get(ctx context.Context, itemID string) (Item, error) {
	row := r.Pool.QueryRow(ctx, getItemSQL, itemID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *Repository) ScanAll(ctx context.Context) ([]Item, error) {
	rows, err := r.Pool.Query(ctx, scanItemsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) SetTitleContent(ctx context.Context, itemID, title, content string, at time.Time) error {
	_, err := r.Pool.Exec(ctx, setTitleContentSQL, itemID, title, content, contracts.FormatTimestamp(at))
	return err
}

func (r *Repository) MarkDone(ctx context.Context, itemID string, at time.Time) error {
	_, err := r.Pool.Exec(ctx, markDoneSQL, itemID, contracts.FormatTimestamp(at))
	return err
}

func (r *Repository) MarkArchived(ctx context.Context, itemID string, at time.Time) error {
	_, err := r.Pool.Exec(ctx, markArchivedSQL, itemID, contracts.FormatTimestamp(at))
	return err
}

func (r *Repository) MarkDeleted(ctx context.Context, itemID string, at time.Time) error {
	_, err := r.Pool.Exec(ctx, markDeletedSQL, itemID, contracts.FormatTimestamp(at))
	return err
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		item        Item
		createdDate string
		updatedDate *string
	)
	if err := row.Scan(
		&item.ItemID,
		&item.Title,
		&item.Content,
		&createdDate,
		&updatedDate,
		&item.IsDone,
		&item.IsArchived,
		&item.IsDeleted,
	); err != nil {
		return Item{}, err
	}

	createdAt, err := contracts.ParseTimestamp(createdDate)
	if err != nil {
		return Item{}, fmt.Errorf("parse created_date for item %s: %w", item.ItemID, err)
	}
	item.CreatedAt = createdAt

	if updatedDate != nil {
		updatedAt, err := contracts.ParseTimestamp(*updatedDate)
		if err != nil {
			return Item{}, fmt.Errorf("parse updated_date for item %s: %w", item.ItemID, err)
		}
		item.UpdatedAt = &updatedAt
	}
	return item, nil
}
