package catalog

import (
	"context"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists books.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a book repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every book, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// FindByID returns gorm.ErrRecordNotFound when the id does not resolve.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (r *Repository) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	err := r.db.WithContext(ctx).
		Model(book).
		Select("title", "author", "price", "stock", "updated_at").
		Updates(book).Error
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes the book and reports how many rows went away.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	return res.RowsAffected, res.Error
}
