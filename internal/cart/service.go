package cart

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidItem  = "Invalid book details."
	msgNotFound     = "Item not found."
	msgListFailed   = "Error fetching cart items."
	msgAddFailed    = "Error adding to cart."
	msgRemoveFailed = "Error removing item from cart."
	msgClearFailed  = "Error during checkout."
)

// removeAttempts bounds the retries when a concurrent add moves a row between
// the conditional statements of RemoveOne.
const removeAttempts = 3

// maxBookIDLen matches the width of cart_items.book_id.
const maxBookIDLen = 64

var maxPrice = decimal.New(1, 10)

// Service exposes the cart operations. There is a single global cart.
type Service interface {
	ListItems(ctx context.Context) ([]models.CartItem, error)
	AddItem(ctx context.Context, input AddItemInput) (*AddItemResult, error)
	RemoveOne(ctx context.Context, id string) (*RemoveOneResult, error)
	Clear(ctx context.Context) (int64, error)
}

// AddItemInput is the book snapshot sent by the client.
type AddItemInput struct {
	BookID string
	Title  string
	Author string
	Price  types.FlexDecimal
}

// AddItemResult reports the stored row and whether it was newly inserted.
type AddItemResult struct {
	Item    *models.CartItem
	Created bool
}

// RemoveOneResult carries the decremented row, or Removed when the row was deleted.
type RemoveOneResult struct {
	Item    *models.CartItem
	Removed bool
}

type service struct {
	repo    ItemRepository
	metrics *metrics.OperationMetrics
}

// NewService builds a cart service. metrics may be nil.
func NewService(repo ItemRepository, m *metrics.OperationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func (s *service) ListItems(ctx context.Context) (items []models.CartItem, err error) {
	defer s.observe("list_items", time.Now(), &err)

	items, err = s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Storage(err, msgListFailed)
	}
	return items, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (result *AddItemResult, err error) {
	defer s.observe("add_item", time.Now(), &err)

	item, err := validateAddItem(input)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.AddOrIncrement(ctx, item)
	if err != nil {
		return nil, pkgerrors.Storage(err, msgAddFailed)
	}

	created := stored.Quantity == 1
	if created {
		s.metrics.IncOutcome("add_item", "created")
	} else {
		s.metrics.IncOutcome("add_item", "incremented")
	}
	return &AddItemResult{Item: stored, Created: created}, nil
}

func (s *service) RemoveOne(ctx context.Context, id string) (result *RemoveOneResult, err error) {
	defer s.observe("remove_one", time.Now(), &err)

	itemID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgNotFound)
	}

	for attempt := 0; attempt < removeAttempts; attempt++ {
		decreased, err := s.repo.DecrementAboveOne(ctx, itemID)
		if err != nil {
			return nil, pkgerrors.Storage(err, msgRemoveFailed)
		}
		if decreased != nil {
			s.metrics.IncOutcome("remove_one", "decreased")
			return &RemoveOneResult{Item: decreased}, nil
		}

		deleted, err := s.repo.DeleteIfSingle(ctx, itemID)
		if err != nil {
			return nil, pkgerrors.Storage(err, msgRemoveFailed)
		}
		if deleted > 0 {
			s.metrics.IncOutcome("remove_one", "removed")
			return &RemoveOneResult{Removed: true}, nil
		}

		exists, err := s.repo.Exists(ctx, itemID)
		if err != nil {
			return nil, pkgerrors.Storage(err, msgRemoveFailed)
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, msgRemoveFailed)
}

func (s *service) Clear(ctx context.Context) (cleared int64, err error) {
	defer s.observe("clear", time.Now(), &err)

	cleared, err = s.repo.Clear(ctx)
	if err != nil {
		return 0, pkgerrors.Storage(err, msgClearFailed)
	}
	return cleared, nil
}

func (s *service) observe(op string, started time.Time, err *error) {
	s.metrics.Observe(op, started, *err)
}

// validateAddItem requires every snapshot field and a positive price in
// whole cents. bookId is an opaque reference and is stored as given.
func validateAddItem(input AddItemInput) (*models.CartItem, error) {
	details := map[string]string{}

	bookID := strings.TrimSpace(input.BookID)
	switch {
	case bookID == "":
		details["bookId"] = "is required"
	case utf8.RuneCountInString(bookID) > maxBookIDLen:
		details["bookId"] = fmt.Sprintf("must be at most %d characters", maxBookIDLen)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		details["title"] = "is required"
	}
	author := strings.TrimSpace(input.Author)
	if author == "" {
		details["author"] = "is required"
	}

	switch {
	case !input.Price.Set():
		details["price"] = "is required"
	case !input.Price.Valid:
		details["price"] = "must be a number"
	case !input.Price.Value.IsPositive():
		details["price"] = "must be greater than 0"
	case !input.Price.Value.Equal(input.Price.Value.Round(2)):
		details["price"] = "must have at most 2 decimal places"
	case input.Price.Value.GreaterThanOrEqual(maxPrice):
		details["price"] = "is too large"
	}

	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidItem).WithDetails(details)
	}
	return &models.CartItem{
		BookID: bookID,
		Title:  title,
		Author: author,
		Price:  input.Price.Value,
	}, nil
}
