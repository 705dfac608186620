// Package handler is the JSON HTTP surface over the user, menu and order services.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bitebuddy-be/internal/menu"
	"bitebuddy-be/internal/order"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// MenuCatalog is the read side of the menu the public endpoints need.
type MenuCatalog interface {
	ListByService(ctx context.Context, serviceID int64, onlyAvailable bool) ([]*menu.MenuItem, error)
}

type Handler struct {
	users         user.Service
	orders        order.Service
	menu          MenuCatalog
	tokens        *user.TokenManager
	secureCookies bool
}

func New(users user.Service, orders order.Service, catalog MenuCatalog, tokens *user.TokenManager, secureCookies bool) *Handler {
	return &Handler{
		users:         users,
		orders:        orders,
		menu:          catalog,
		tokens:        tokens,
		secureCookies: secureCookies,
	}
}

var errBadBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// actorFrom reads the caller set by the auth middleware.
func actorFrom(r *http.Request) order.Actor {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return order.Actor{ID: id, Role: user.Role(utils.GetUserRoleFromContext(r.Context()))}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, ok := utils.ParseID(chi.URLParam(r, name))
	if !ok {
		return 0, &order.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func queryPage(r *http.Request) (order.Page, error) {
	var p order.Page
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &order.ValidationError{Field: "page", Reason: "must be an integer"}
		}
		p.Number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &order.ValidationError{Field: "page_size", Reason: "must be an integer"}
		}
		p.Size = n
	}
	return p, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func queryTime(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, &order.ValidationError{Field: name, Reason: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
