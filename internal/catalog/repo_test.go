package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryBookFlow(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Book{
		Title:  "Dune",
		Author: "Frank Herbert",
		Price:  decimal.RequireFromString("9.99"),
		Stock:  3,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", fetched.Title)
	assert.True(t, decimal.RequireFromString("9.99").Equal(fetched.Price), "price %s", fetched.Price)
	assert.Equal(t, 3, fetched.Stock)

	fetched.Price = decimal.RequireFromString("12.50")
	fetched.Stock = 0
	_, err = repo.Update(ctx, fetched)
	require.NoError(t, err)

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(again.Price))
	assert.Equal(t, 0, again.Stock, "zero stock must be written")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)

	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
