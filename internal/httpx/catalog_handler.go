package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/catalog"
)

func urlID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id, err == nil && id > 0
}

type categoryReq struct {
	Name string  `json:"name" validate:"required,max=120"`
	Icon *string `json:"icon" validate:"omitempty,url"`
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := a.Catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	c, err := a.Catalog.CreateCategory(r.Context(), req.Name, req.Icon)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, c)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req categoryReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	c, err := a.Catalog.UpdateCategory(r.Context(), id, req.Name, req.Icon)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.Catalog.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Deleted")
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := a.Catalog.ListProducts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := a.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if bindJSON(w, r, &req) != nil {
		return
	}
	p, err := a.Catalog.CreateProduct(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req catalog.ProductInput
	if bindJSON(w, r, &req) != nil {
		return
	}
	p, err := a.Catalog.UpdateProduct(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.Catalog.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	// DB cascade removed the rows; clean the files best-effort
	if err := a.Storage.RemoveAll(id); err != nil {
		a.Log.Warn("remove product files", zap.Error(err))
	}
	respondMessage(w, http.StatusOK, "Product deleted")
}
