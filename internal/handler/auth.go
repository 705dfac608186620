package handler

import (
	"mime"
	"net/http"

	"bitebuddy-be/internal/auth"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"
	"bitebuddy-be/internal/validation"

	"go.uber.org/zap"
)

type userResponse struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone,omitempty"`
	Role   user.Role `json:"role"`
	Active bool      `json:"is_active"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role, Active: u.IsActive}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetAccessTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	utils.WriteJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(u)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetAccessTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	utils.WriteJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u)})
}

const adminLoginPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" id="admin-login">
<input type="email" name="email" autocomplete="username" required>
<input type="password" name="password" autocomplete="current-password" required>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`

// AdminLoginPage serves the form the hidden gesture navigates to.
func (h *Handler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(adminLoginPage))
}

// AdminLogin accepts JSON or form posts. Non-admin accounts get the same
// 401 as wrong credentials.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if isFormPost(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, r, errBadBody)
			return
		}
		in.Email = r.PostForm.Get("email")
		in.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	token, u, err := h.users.LoginAdmin(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromCtx(r.Context()).Info("admin signed in", zap.Int64("user_id", u.ID))
	auth.SetAccessTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	utils.WriteJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u)})
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.users.ListStaff(r.Context(), r.URL.Query().Get("include_inactive") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(staff))
	for _, u := range staff {
		out = append(out, toUserResponse(u))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var in user.StaffInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.CreateStaff(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) SetStaffActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, &validation.FieldError{Field: "active", Reason: "is required"})
		return
	}

	u, err := h.users.SetActive(r.Context(), actorFrom(r).ID, id, *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
