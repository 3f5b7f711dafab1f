package catalog

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bookstore-backend/api/validators"
	catalogsvc "github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const maxTextLen = 512

// AdminSecretHeader carries the admin secret for clients that keep it out of the body.
const AdminSecretHeader = "X-Admin-Secret"

// adminCredential is embedded in every mutation body. adminPassword is the
// name the storefront still sends.
type adminCredential struct {
	AdminSecret   string `json:"adminSecret"`
	AdminPassword string `json:"adminPassword"`
}

func (c adminCredential) resolve(r *http.Request) string {
	for _, candidate := range []string{c.AdminSecret, c.AdminPassword, r.Header.Get(AdminSecretHeader)} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

type createBookRequest struct {
	adminCredential
	Title  string            `json:"title" validate:"max=512"`
	Author string            `json:"author" validate:"max=512"`
	Price  types.FlexDecimal `json:"price"`
	Stock  types.FlexInt     `json:"stock"`
}

func (r createBookRequest) toInput() catalogsvc.CreateBookInput {
	return catalogsvc.CreateBookInput{
		Title:  validators.SanitizeString(r.Title, maxTextLen),
		Author: validators.SanitizeString(r.Author, maxTextLen),
		Price:  r.Price,
		Stock:  r.Stock,
	}
}

type updateBookRequest struct {
	adminCredential
	Title  *string           `json:"title" validate:"omitempty,max=512"`
	Author *string           `json:"author" validate:"omitempty,max=512"`
	Price  types.FlexDecimal `json:"price"`
	Stock  types.FlexInt     `json:"stock"`
}

func (r updateBookRequest) toInput() catalogsvc.UpdateBookInput {
	return catalogsvc.UpdateBookInput{
		Title:  sanitizeOptional(r.Title),
		Author: sanitizeOptional(r.Author),
		Price:  r.Price,
		Stock:  r.Stock,
	}
}

type deleteBookRequest struct {
	adminCredential
}

func sanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*value, maxTextLen)
	return &cleaned
}
