package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgForbiddenCreate = "Unauthorized: Only admins can add books"
	msgForbiddenUpdate = "Unauthorized: Only admins can edit books"
	msgForbiddenDelete = "Unauthorized: Only admins can delete books"
	msgNotFound        = "Book not found."
	msgListFailed      = "Database error"
	msgCreateFailed    = "Server error while adding book."
	msgUpdateFailed    = "Server error while updating book."
	msgDeleteFailed    = "Server error while deleting book."
)

// maxPrice is the largest value a numeric(12,2) column holds.
var maxPrice = decimal.New(1, 10)

// Service exposes the catalog operations.
type Service interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	CreateBook(ctx context.Context, secret string, input CreateBookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, secret string, id string, input UpdateBookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, secret string, id string) error
}

// CreateBookInput carries a new book as received from the client. Numeric
// fields keep their raw presence so coercion happens here.
type CreateBookInput struct {
	Title  string
	Author string
	Price  types.FlexDecimal
	Stock  types.FlexInt
}

// UpdateBookInput is a partial update; nil or empty strings and absent or
// null numbers leave the stored value untouched.
type UpdateBookInput struct {
	Title  *string
	Author *string
	Price  types.FlexDecimal
	Stock  types.FlexInt
}

type service struct {
	repo    BookRepository
	guard   AdminGuard
	metrics *metrics.OperationMetrics
}

// NewService builds a catalog service. metrics may be nil.
func NewService(repo BookRepository, guard AdminGuard, m *metrics.OperationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("book repository required")
	}
	if len(guard.secret) == 0 {
		return nil, fmt.Errorf("admin secret required")
	}
	return &service{repo: repo, guard: guard, metrics: m}, nil
}

func (s *service) ListBooks(ctx context.Context) (books []models.Book, err error) {
	defer s.observe("list_books", time.Now(), &err)

	books, err = s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Storage(err, msgListFailed)
	}
	return books, nil
}

func (s *service) CreateBook(ctx context.Context, secret string, input CreateBookInput) (book *models.Book, err error) {
	defer s.observe("create_book", time.Now(), &err)

	if !s.guard.Authorized(secret) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenCreate)
	}

	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	details := map[string]string{}
	if title == "" {
		details["title"] = "is required"
	}
	if author == "" {
		details["author"] = "is required"
	}

	price, priceErr := coercePrice(input.Price, true)
	if priceErr != "" {
		details["price"] = priceErr
	}

	stock := 0
	if input.Stock.Set() && input.Stock.Valid {
		if input.Stock.Value < 0 {
			details["stock"] = "must be at least 0"
		} else {
			stock = input.Stock.Value
		}
	}

	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid book details.").WithDetails(details)
	}

	created, err := s.repo.Create(ctx, &models.Book{
		Title:  title,
		Author: author,
		Price:  price,
		Stock:  stock,
	})
	if err != nil {
		return nil, pkgerrors.Storage(err, msgCreateFailed)
	}
	return created, nil
}

func (s *service) UpdateBook(ctx context.Context, secret string, id string, input UpdateBookInput) (book *models.Book, err error) {
	defer s.observe("update_book", time.Now(), &err)

	if !s.guard.Authorized(secret) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenUpdate)
	}

	bookID, err := parseBookID(id)
	if err != nil {
		return nil, err
	}

	book, err = s.repo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Storage(err, msgUpdateFailed)
	}

	details := map[string]string{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			book.Title = title
		}
	}
	if input.Author != nil {
		if author := strings.TrimSpace(*input.Author); author != "" {
			book.Author = author
		}
	}
	if input.Price.Set() {
		price, priceErr := coercePrice(input.Price, false)
		if priceErr != "" {
			details["price"] = priceErr
		} else {
			book.Price = price
		}
	}
	if input.Stock.Set() {
		switch {
		case !input.Stock.Valid:
			details["stock"] = "must be a number"
		case input.Stock.Value < 0:
			details["stock"] = "must be at least 0"
		default:
			book.Stock = input.Stock.Value
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid book details.").WithDetails(details)
	}

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		return nil, pkgerrors.Storage(err, msgUpdateFailed)
	}
	return updated, nil
}

func (s *service) DeleteBook(ctx context.Context, secret string, id string) (err error) {
	defer s.observe("delete_book", time.Now(), &err)

	if !s.guard.Authorized(secret) {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenDelete)
	}

	bookID, err := parseBookID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, bookID)
	if err != nil {
		return pkgerrors.Storage(err, msgDeleteFailed)
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	return nil
}

func (s *service) observe(op string, started time.Time, err *error) {
	s.metrics.Observe(op, started, *err)
}

// parseBookID treats an id that cannot name any book as not found.
func parseBookID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgNotFound)
	}
	return id, nil
}

// coercePrice returns the price as supplied, or a reason it is unusable.
// A price is stored only when it parsed as a non-negative amount in whole
// cents.
func coercePrice(in types.FlexDecimal, required bool) (decimal.Decimal, string) {
	switch {
	case !in.Set():
		if required {
			return decimal.Zero, "is required"
		}
		return decimal.Zero, ""
	case !in.Valid:
		return decimal.Zero, "must be a number"
	case in.Value.IsNegative():
		return decimal.Zero, "must be at least 0"
	case !in.Value.Equal(in.Value.Round(2)):
		return decimal.Zero, "must have at most 2 decimal places"
	case in.Value.GreaterThanOrEqual(maxPrice):
		return decimal.Zero, "is too large"
	}
	return in.Value, ""
}
