package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists cart items. Each book owns at most one row.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every cart row, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddOrIncrement inserts the snapshot with quantity 1, or bumps the quantity of
// the existing row for the same book. Snapshot columns are only written on insert.
func (r *Repository) AddOrIncrement(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	var stored models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *item
		row.ID = uuid.Nil
		row.Quantity = 1

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Where("book_id = ?", item.BookID).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// DecrementAboveOne lowers the quantity of a row holding more than one copy.
// It returns nil without error when no such row exists.
func (r *Repository) DecrementAboveOne(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var stored *models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND quantity > 1", id).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity - 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		var item models.CartItem
		if err := tx.Where("id = ?", id).First(&item).Error; err != nil {
			return err
		}
		stored = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// DeleteIfSingle removes the row only while it holds a single copy.
func (r *Repository) DeleteIfSingle(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND quantity <= 1", id).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes every row and reports how many went away.
func (r *Repository) Clear(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
