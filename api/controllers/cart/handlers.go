package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	cartsvc "github.com/angelmondragon/bookstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const (
	msgAdded     = "Added to cart"
	msgIncreased = "Updated quantity in cart"
	msgDecreased = "Decreased quantity"
	msgRemoved   = "Item removed from cart."
	msgCleared   = "Cart cleared after checkout."
)

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
}

// ListItems returns every row of the cart.
func ListItems(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartItems(items))
	}
}

// AddItem puts one more copy of a book in the cart.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Created {
			responses.WriteSuccessStatus(w, http.StatusCreated, ItemMessage{Message: msgAdded, CartItem: newCartItem(result.Item)})
			return
		}
		responses.WriteSuccess(w, ItemMessage{Message: msgIncreased, CartItem: newCartItem(result.Item)})
	}
}

// RemoveOne takes one copy out of the row named in the path, deleting the row
// when it held the last copy.
func RemoveOne(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if logg != nil {
			ctx = logg.WithCartItemID(ctx, id)
		}

		result, err := svc.RemoveOne(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Removed {
			responses.WriteMessage(w, http.StatusOK, msgRemoved)
			return
		}
		responses.WriteSuccess(w, ItemMessage{Message: msgDecreased, CartItem: newCartItem(result.Item)})
	}
}

// Clear empties the cart. Called by the storefront on checkout.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		cleared, err := svc.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "cleared", cleared), "cart.cleared")
		}
		responses.WriteMessage(w, http.StatusOK, msgCleared)
	}
}
