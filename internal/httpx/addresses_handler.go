package httpx

import (
	"net/http"

	"github.com/umdsoft/bunyodoptom-backend/internal/auth"
	"github.com/umdsoft/bunyodoptom-backend/internal/users"
)

func (a *API) listAddresses(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	list, err := a.Users.ListAddresses(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func (a *API) createAddress(w http.ResponseWriter, r *http.Request) {
	var req users.AddressInput
	if bindJSON(w, r, &req) != nil {
		return
	}
	claims := auth.FromContext(r.Context())
	addr, err := a.Users.CreateAddress(r.Context(), claims.UserID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, addr)
}

func (a *API) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req users.AddressInput
	if bindJSON(w, r, &req) != nil {
		return
	}
	claims := auth.FromContext(r.Context())
	addr, err := a.Users.UpdateAddress(r.Context(), claims.UserID, id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, addr)
}

func (a *API) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	claims := auth.FromContext(r.Context())
	if err := a.Users.DeleteAddress(r.Context(), claims.UserID, id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Deleted")
}
