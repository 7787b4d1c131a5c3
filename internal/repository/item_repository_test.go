package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tresh-api/internal/model"
)

var itemRowColumns = []string{"id", "title", "description", "done", "created_at", "updated_at"}

func TestItemRepo_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM items ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(1, "milk", "buy milk", false, now, now).
			AddRow(2, "bread", "", true, now, now))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "bread", items[1].Title)
	assert.True(t, items[1].Done)
}

func TestItemRepo_List_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery("FROM items").WillReturnRows(sqlmock.NewRows(itemRowColumns))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestItemRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO items (title, description, done)")).
		WithArgs("milk", "buy milk", false).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(9, "milk", "buy milk", false, now, now))

	it := &model.Item{Title: "milk", Description: "buy milk"}
	require.NoError(t, repo.Create(context.Background(), it))
	assert.Equal(t, uint64(9), it.ID)
	assert.Equal(t, now, it.CreatedAt)
}

func TestItemRepo_Update_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE items SET title = ?, description = ?, done = ? WHERE id = ?")).
		WithArgs("t", "d", true, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Item{ID: 3, Title: "t", Description: "d", Done: true})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = ?")).
		WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = ?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrItemNotFound)
}

func TestItemRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery("FROM items WHERE id").WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows(itemRowColumns))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}
