package cart

import (
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CartItem is the wire shape of a cart row.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	BookID    string    `json:"bookId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemMessage pairs a status message with the affected row.
type ItemMessage struct {
	Message  string   `json:"message"`
	CartItem CartItem `json:"cartItem"`
}

func newCartItem(item *models.CartItem) CartItem {
	return CartItem{
		ID:        item.ID,
		BookID:    item.BookID,
		Title:     item.Title,
		Author:    item.Author,
		Price:     item.Price.InexactFloat64(),
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func newCartItems(items []models.CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	for i := range items {
		out = append(out, newCartItem(&items[i]))
	}
	return out
}
