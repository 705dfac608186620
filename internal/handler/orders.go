package handler

import (
	"net/http"

	"bitebuddy-be/internal/cart"
	"bitebuddy-be/internal/menu"
	"bitebuddy-be/internal/order"
	"bitebuddy-be/internal/utils"
)

type checkoutRequest struct {
	ServiceID           int64       `json:"service_id"`
	Items               []cart.Line `json:"items"`
	Address             string      `json:"address"`
	Phone               string      `json:"phone"`
	SpecialInstructions string      `json:"special_instructions"`
}

type assignRequest struct {
	StaffID int64 `json:"staff_id"`
}

type verifyRequest struct {
	OTP string `json:"otp"`
}

type verifyResponse struct {
	Outcome order.Outcome   `json:"outcome"`
	Order   order.StaffView `json:"order"`
}

type adminListResponse struct {
	Orders []order.AdminView `json:"orders"`
	Total  int               `json:"total"`
}

// --- public ---

func (h *Handler) ServiceMenu(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.menu.ListByService(r.Context(), serviceID, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*menu.MenuItem{}
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

// --- customer ---

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in checkoutRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := cart.FromLines(in.ServiceID, in.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	o, err := h.orders.Checkout(r.Context(), actor.ID, c, order.DeliveryDetails{
		Address:             in.Address,
		Phone:               in.Phone,
		SpecialInstructions: in.SpecialInstructions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, order.NewCustomerView(o))
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.ListForCustomer(r.Context(), actorFrom(r).ID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]order.CustomerView, 0, len(orders))
	for _, o := range orders {
		out = append(out, order.NewCustomerView(o))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// GetOrder answers with the view for the caller's role.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	o, err := h.orders.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order.ViewFor(actor.Role, o, h.orders.Policy().MaxAttempts))
}

// CancelOrder serves both the customer and the admin cancel routes; the
// service applies the policy for the caller's role.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	o, err := h.orders.Cancel(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order.ViewFor(actor.Role, o, h.orders.Policy().MaxAttempts))
}

// --- staff ---

func (h *Handler) StaffQueue(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForStaff(r.Context(), actorFrom(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	maxAttempts := h.orders.Policy().MaxAttempts
	out := make([]order.StaffView, 0, len(orders))
	for _, o := range orders {
		out = append(out, order.NewStaffView(o, maxAttempts))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.Dispatch(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order.NewStaffView(o, h.orders.Policy().MaxAttempts))
}

// VerifyOTP reports expired and locked codes as outcomes with 200, not as errors.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in verifyRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	outcome, o, err := h.orders.VerifyOTP(r.Context(), actorFrom(r), id, in.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, verifyResponse{
		Outcome: outcome,
		Order:   order.NewStaffView(o, h.orders.Policy().MaxAttempts),
	})
}

// --- admin ---

func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	var err error

	if raw := r.URL.Query().Get("status"); raw != "" {
		s := order.Status(raw)
		filter.Status = &s
	}
	if filter.DateFrom, err = queryTime(r, "date_from", false); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.DateTo, err = queryTime(r, "date_to", true); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Page, err = queryPage(r); err != nil {
		writeError(w, r, err)
		return
	}

	orders, total, err := h.orders.ListAll(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	maxAttempts := h.orders.Policy().MaxAttempts
	resp := adminListResponse{Orders: make([]order.AdminView, 0, len(orders)), Total: total}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, order.NewAdminView(o, maxAttempts))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "date_from", false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "date_to", true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.orders.Stats(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in assignRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.StaffID <= 0 {
		writeError(w, r, &order.ValidationError{Field: "staff_id", Reason: "is required"})
		return
	}

	o, err := h.orders.Assign(r.Context(), actorFrom(r), id, in.StaffID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order.NewAdminView(o, h.orders.Policy().MaxAttempts))
}

func (h *Handler) ReissueOTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.ReissueOTP(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order.NewAdminView(o, h.orders.Policy().MaxAttempts))
}
