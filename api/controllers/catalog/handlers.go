package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	catalogsvc "github.com/angelmondragon/bookstore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const msgBookDeleted = "Book deleted successfully."

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable")
}

// ListBooks returns every book in the catalog.
func ListBooks(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		books, err := svc.ListBooks(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBooks(books))
	}
}

// CreateBook adds a book. Requires the admin secret.
func CreateBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload, validators.AllowUnknownFields()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.CreateBook(r.Context(), payload.resolve(r), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBookID(ctx, book.ID.String())
			logg.Info(ctx, "book.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBook(book))
	}
}

// UpdateBook applies a partial update to the book named in the path.
func UpdateBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if logg != nil {
			ctx = logg.WithBookID(ctx, id)
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload, validators.AllowUnknownFields()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.UpdateBook(ctx, payload.resolve(r), id, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBook(book))
	}
}

// DeleteBook removes the book named in the path. Cart rows referencing it are
// left alone.
func DeleteBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if logg != nil {
			ctx = logg.WithBookID(ctx, id)
		}

		var payload deleteBookRequest
		if err := validators.DecodeJSONBody(r, &payload, validators.AllowUnknownFields(), validators.AllowEmptyBody()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteBook(ctx, payload.resolve(r), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "book.deleted")
		}
		responses.WriteMessage(w, http.StatusOK, msgBookDeleted)
	}
}
