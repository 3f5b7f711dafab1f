package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(openTestDB(t)), nil)
	require.NoError(t, err)
	return svc
}

func price(t *testing.T, raw string) types.FlexDecimal {
	t.Helper()
	var f types.FlexDecimal
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func duneInput(t *testing.T, bookID uuid.UUID) AddItemInput {
	t.Helper()
	return AddItemInput{
		BookID: bookID.String(),
		Title:  "Dune",
		Author: "Frank Herbert",
		Price:  price(t, `10`),
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestAddItemTwiceIncrementsOneRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bookID := uuid.New()

	first, err := svc.AddItem(ctx, duneInput(t, bookID))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Item.Quantity)
	assert.Equal(t, bookID.String(), first.Item.BookID)

	second, err := svc.AddItem(ctx, duneInput(t, bookID))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, 2, second.Item.Quantity)
	assert.Equal(t, first.Item.ID, second.Item.ID)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItemKeepsFirstSnapshot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bookID := uuid.New()

	_, err := svc.AddItem(ctx, duneInput(t, bookID))
	require.NoError(t, err)

	res, err := svc.AddItem(ctx, AddItemInput{
		BookID: bookID.String(),
		Title:  "Dune (Deluxe)",
		Author: "F. Herbert",
		Price:  price(t, `"12.5"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", res.Item.Title)
	assert.Equal(t, "Frank Herbert", res.Item.Author)
	assert.True(t, decimal.NewFromInt(10).Equal(res.Item.Price), "price %s", res.Item.Price)
}

func TestAddItemConcurrentSameBook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bookID := uuid.New()

	input := duneInput(t, bookID)
	const adds = 8
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, input)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, adds, items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bookID := uuid.NewString()

	cases := map[string]AddItemInput{
		"missing book":  {Title: "Dune", Author: "Frank Herbert", Price: price(t, `10`)},
		"blank book":    {BookID: "   ", Title: "Dune", Author: "Frank Herbert", Price: price(t, `10`)},
		"long book id":  {BookID: strings.Repeat("b", maxBookIDLen+1), Title: "Dune", Author: "Frank Herbert", Price: price(t, `10`)},
		"missing title": {BookID: bookID, Author: "Frank Herbert", Price: price(t, `10`)},
		"zero price":    {BookID: bookID, Title: "Dune", Author: "Frank Herbert", Price: price(t, `0`)},
		"sub-cent":      {BookID: bookID, Title: "Dune", Author: "Frank Herbert", Price: price(t, `9.999`)},
		"text price":    {BookID: bookID, Title: "Dune", Author: "Frank Herbert", Price: price(t, `"ten"`)},
		"no price":      {BookID: bookID, Title: "Dune", Author: "Frank Herbert"},
	}
	for name, input := range cases {
		_, err := svc.AddItem(ctx, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, name)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code(), name)
		assert.Equal(t, "Invalid book details.", typed.Message(), name)
	}

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddItemAcceptsAnyBookReference(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, ref := range []string{"1", "42", "isbn-9780441172719"} {
		res, err := svc.AddItem(ctx, AddItemInput{BookID: ref, Title: "Dune", Author: "Frank Herbert", Price: price(t, `10`)})
		require.NoError(t, err, ref)
		assert.Equal(t, ref, res.Item.BookID)
	}

	again, err := svc.AddItem(ctx, AddItemInput{BookID: " 1 ", Title: "Dune", Author: "Frank Herbert", Price: price(t, `10`)})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, 2, again.Item.Quantity)
}

func TestAddItemKeepsCentPrice(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.AddItem(context.Background(), AddItemInput{BookID: "7", Title: "Emma", Author: "Jane Austen", Price: price(t, `"9.99"`)})
	require.NoError(t, err)
	assert.Equal(t, "9.99", res.Item.Price.StringFixed(2))
}

func TestRemoveOneDecrementsThenDeletes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bookID := uuid.New()

	var added *AddItemResult
	for i := 0; i < 3; i++ {
		res, err := svc.AddItem(ctx, duneInput(t, bookID))
		require.NoError(t, err)
		added = res
	}
	id := added.Item.ID.String()

	res, err := svc.RemoveOne(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.False(t, res.Removed)
	assert.Equal(t, 2, res.Item.Quantity)

	res, err = svc.RemoveOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Item.Quantity)

	res, err = svc.RemoveOne(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Nil(t, res.Item)

	_, err = svc.RemoveOne(ctx, id)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveOneUnknownShapeIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RemoveOne(context.Background(), "42")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Item not found.", pkgerrors.As(err).Message())
}

func TestClearIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, duneInput(t, uuid.New()))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, duneInput(t, uuid.New()))
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)

	cleared, err = svc.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddItemRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, err := NewService(NewRepository(openTestDB(t)), metrics.NewOperationMetrics(reg, "cart"))
	require.NoError(t, err)
	ctx := context.Background()
	bookID := uuid.New()

	_, err = svc.AddItem(ctx, duneInput(t, bookID))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, duneInput(t, bookID))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "bookstore_operations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["operation"] == "add_item" {
				outcomes[labels["outcome"]] += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), outcomes["created"])
	assert.Equal(t, float64(1), outcomes["incremented"])
}

type failingRepo struct {
	ItemRepository
}

func (failingRepo) Clear(context.Context) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingRepo) List(context.Context) ([]models.CartItem, error) {
	return nil, errors.New("disk full")
}

func TestStorageFailuresKeepMessages(t *testing.T) {
	svc, err := NewService(failingRepo{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Clear(ctx)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStorage, typed.Code())
	assert.Equal(t, "Error during checkout.", typed.Message())

	_, err = svc.ListItems(ctx)
	assert.Equal(t, "Error fetching cart items.", pkgerrors.As(err).Message())
}
