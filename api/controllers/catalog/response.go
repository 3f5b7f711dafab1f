package catalog

import (
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Book is the wire shape of a catalog entry.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newBook(book *models.Book) Book {
	return Book{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Price:     book.Price.InexactFloat64(),
		Stock:     book.Stock,
		CreatedAt: book.CreatedAt,
		UpdatedAt: book.UpdatedAt,
	}
}

func newBooks(books []models.Book) []Book {
	out := make([]Book, 0, len(books))
	for i := range books {
		out = append(out, newBook(&books[i]))
	}
	return out
}
