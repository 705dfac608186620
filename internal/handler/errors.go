package handler

import (
	"errors"
	"net/http"

	"bitebuddy-be/internal/cart"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/order"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"
	"bitebuddy-be/internal/validation"

	"go.uber.org/zap"
)

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *validation.FieldError
	switch {
	case errors.As(err, &fe):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fe.Reason,
			"field": fe.Field,
		})
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrInvalidQuantity):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"field": "items",
		})
	case errors.Is(err, errBadBody):
		utils.WriteJSONError(w, errBadBody.Error(), http.StatusBadRequest)
	case errors.Is(err, user.ErrInvalidCredentials):
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, order.ErrForbidden):
		utils.WriteJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, user.ErrUserNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, user.ErrEmailExists),
		errors.Is(err, user.ErrSelfDeactivation):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
