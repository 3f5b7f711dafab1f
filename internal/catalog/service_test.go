package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "s3cret"

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo, NewAdminGuard(testSecret), nil)
	require.NoError(t, err)
	return svc, repo
}

func flexDecimal(t *testing.T, raw string) types.FlexDecimal {
	t.Helper()
	var f types.FlexDecimal
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func flexInt(t *testing.T, raw string) types.FlexInt {
	t.Helper()
	var f types.FlexInt
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, NewAdminGuard(testSecret), nil)
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), NewAdminGuard(" "), nil)
	require.Error(t, err)
}

func TestAdminGuard(t *testing.T) {
	guard := NewAdminGuard(testSecret)
	assert.True(t, guard.Authorized(testSecret))
	assert.False(t, guard.Authorized("s3cre"))
	assert.False(t, guard.Authorized(""))
	assert.False(t, NewAdminGuard("").Authorized(""))
}

func TestCreateBookCoercesAndLists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	before, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	book, err := svc.CreateBook(ctx, testSecret, CreateBookInput{
		Title:  " Dune ",
		Author: "Frank Herbert",
		Price:  flexDecimal(t, `"10.49"`),
		Stock:  flexInt(t, `"7"`),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.True(t, decimal.RequireFromString("10.49").Equal(book.Price), "price %s", book.Price)
	assert.Equal(t, 7, book.Stock)

	after, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestCreateBookStockDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, raw := range []string{"", `null`, `"many"`} {
		input := CreateBookInput{Title: "T", Author: "A", Price: flexDecimal(t, `5`)}
		if raw != "" {
			input.Stock = flexInt(t, raw)
		}
		book, err := svc.CreateBook(ctx, testSecret, input)
		require.NoError(t, err, "stock %q", raw)
		assert.Equal(t, 0, book.Stock, "stock %q", raw)
	}

	_, err := svc.CreateBook(ctx, testSecret, CreateBookInput{Title: "T", Author: "A", Price: flexDecimal(t, `5`), Stock: flexInt(t, `-1`)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCreateBookRejectsUnusablePrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]CreateBookInput{
		"absent":   {Title: "T", Author: "A"},
		"null":     {Title: "T", Author: "A", Price: flexDecimal(t, `null`)},
		"garbage":  {Title: "T", Author: "A", Price: flexDecimal(t, `"abc"`)},
		"negative": {Title: "T", Author: "A", Price: flexDecimal(t, `-1`)},
		"sub-cent": {Title: "T", Author: "A", Price: flexDecimal(t, `9.999`)},
		"no title": {Author: "A", Price: flexDecimal(t, `1`)},
	}
	for name, input := range cases {
		_, err := svc.CreateBook(ctx, testSecret, input)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "%s: got %v", name, err)
	}

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestMutationsRequireSecret(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	existing, err := repo.Create(ctx, &models.Book{Title: "Dune", Author: "Frank Herbert", Price: decimal.NewFromInt(10), Stock: 1})
	require.NoError(t, err)

	_, err = svc.CreateBook(ctx, "wrong", CreateBookInput{Title: "T", Author: "A", Price: flexDecimal(t, `1`)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	title := "Changed"
	_, err = svc.UpdateBook(ctx, "", existing.ID.String(), UpdateBookInput{Title: &title})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	// the secret is checked before the id is resolved
	_, err = svc.UpdateBook(ctx, "wrong", uuid.NewString(), UpdateBookInput{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	err = svc.DeleteBook(ctx, "wrong", existing.ID.String())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestUpdateBookPartialMerge(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	existing, err := repo.Create(ctx, &models.Book{Title: "Dune", Author: "Frank Herbert", Price: decimal.NewFromInt(10), Stock: 4})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.UpdateBook(ctx, testSecret, existing.ID.String(), UpdateBookInput{
		Title: &empty,
		Price: flexDecimal(t, `"12.25"`),
		Stock: flexInt(t, `null`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title, "empty title keeps the stored value")
	assert.Equal(t, "Frank Herbert", updated.Author)
	assert.True(t, decimal.RequireFromString("12.25").Equal(updated.Price))
	assert.Equal(t, 4, updated.Stock, "null stock keeps the stored value")

	stored, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.25").Equal(stored.Price))

	_, err = svc.UpdateBook(ctx, testSecret, existing.ID.String(), UpdateBookInput{Stock: flexInt(t, `"lots"`)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateBook(ctx, testSecret, existing.ID.String(), UpdateBookInput{Price: flexDecimal(t, `"12.255"`)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	stored, err = repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.25").Equal(stored.Price), "rejected price must not be stored")
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateBook(ctx, testSecret, uuid.NewString(), UpdateBookInput{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteBook(ctx, testSecret, uuid.NewString())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteBook(ctx, testSecret, "42")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Book not found.", pkgerrors.As(err).Message())

	_, err = svc.UpdateBook(ctx, testSecret, "42", UpdateBookInput{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.DeleteBook(ctx, "wrong", "42")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "the secret is checked before the id")
}

func TestDeleteBook(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	existing, err := repo.Create(ctx, &models.Book{Title: "Dune", Author: "Frank Herbert", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, testSecret, existing.ID.String()))
	_, err = repo.FindByID(ctx, existing.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

type failingRepo struct {
	BookRepository
}

func (failingRepo) List(context.Context) ([]models.Book, error) {
	return nil, errors.New("connection refused")
}

func TestListBooksStorageError(t *testing.T) {
	svc, err := NewService(failingRepo{}, NewAdminGuard(testSecret), nil)
	require.NoError(t, err)

	_, err = svc.ListBooks(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStorage, typed.Code())
	assert.Equal(t, "Database error", typed.Message())
}
