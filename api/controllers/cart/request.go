package cart

import (
	"github.com/angelmondragon/bookstore-backend/api/validators"
	cartsvc "github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type addItemRequest struct {
	BookID types.FlexString  `json:"bookId"`
	Title  string            `json:"title" validate:"max=512"`
	Author string            `json:"author" validate:"max=512"`
	Price  types.FlexDecimal `json:"price"`
}

// toInput blanks a falsy bookId (0, "", null) so the service reports it
// as missing.
func (r addItemRequest) toInput() cartsvc.AddItemInput {
	var bookID string
	if r.BookID.Truthy() {
		bookID = r.BookID.Value
	}
	return cartsvc.AddItemInput{
		BookID: bookID,
		Title:  validators.SanitizeString(r.Title, 512),
		Author: validators.SanitizeString(r.Author, 512),
		Price:  r.Price,
	}
}
