package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/umdsoft/bunyodoptom-backend/internal/auth"
	"github.com/umdsoft/bunyodoptom-backend/internal/users"
)

type signupReq struct {
	Phone     string  `json:"phone" validate:"required,min=7,max=32"`
	Password  string  `json:"password" validate:"required,min=6,max=128"`
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Brightday *string `json:"brightday" validate:"omitempty,datetime=2006-01-02"`
}

type loginReq struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (a *API) issueToken(u *users.User) (string, error) {
	name := ""
	if u.Name != nil {
		name = *u.Name
	}
	return auth.Sign(a.JWTSecret, a.JWTTTL, auth.Claims{
		UserID:  u.ID,
		UID:     u.UID,
		IsAdmin: u.IsAdmin,
		Phone:   u.Phone,
		Name:    name,
	})
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if bindJSON(w, r, &req) != nil {
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	var brightday *time.Time
	if req.Brightday != nil {
		t, _ := time.Parse("2006-01-02", *req.Brightday)
		brightday = &t
	}
	u, err := a.Users.Create(r.Context(), req.Phone, hashed, req.Name, brightday)
	if err != nil {
		respondError(w, err)
		return
	}
	token, err := a.issueToken(u)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: u, Token: token})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if bindJSON(w, r, &req) != nil {
		return
	}

	u, err := a.Users.GetByPhone(r.Context(), req.Phone)
	if err != nil || !auth.CheckPassword(u.Password, req.Password) {
		// same answer for unknown phone and wrong password
		respondMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := a.issueToken(u)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u, Token: token})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	u, err := a.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

type updateMeReq struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Brightday *string `json:"brightday" validate:"omitempty,datetime=2006-01-02"`
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	claims := auth.FromContext(r.Context())
	var brightday *time.Time
	if req.Brightday != nil {
		t, _ := time.Parse("2006-01-02", *req.Brightday)
		brightday = &t
	}
	u, err := a.Users.UpdateProfile(r.Context(), claims.UserID, req.Name, brightday)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	claims := auth.FromContext(r.Context())
	u, err := a.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !auth.CheckPassword(u.Password, req.OldPassword) {
		respondMessage(w, http.StatusBadRequest, "Old password mismatch")
		return
	}
	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := a.Users.UpdatePassword(r.Context(), claims.UserID, hashed); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password changed")
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	list, err := a.Users.List(r.Context(), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
