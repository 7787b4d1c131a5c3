package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/tresh-api/internal/model"
)

const itemColumns = "id, title, description, done, created_at, updated_at"

// ItemRepo encapsulates all queries for todo items.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// List returns every item ordered by id.
func (r *ItemRepo) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+itemColumns+" FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Done, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// GetByID fetches an item or returns ErrItemNotFound.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	var it model.Item
	err := r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id).
		Scan(&it.ID, &it.Title, &it.Description, &it.Done, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &it, nil
}

// Create inserts the item and reloads it so the caller sees the
// database-assigned id and timestamps.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO items (title, description, done) VALUES (?, ?, ?)",
		it.Title, it.Description, it.Done)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*it = *stored
	return nil
}

// Update overwrites title, description and done of an existing item.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE items SET title = ?, description = ?, done = ? WHERE id = ?",
		it.Title, it.Description, it.Done, it.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if ok, err := affectedOne(res); err != nil {
		return err
	} else if !ok {
		return ErrItemNotFound
	}
	stored, err := r.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	*it = *stored
	return nil
}

// Delete removes an item by id.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}
