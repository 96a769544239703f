package httpx

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/catalog"
)

// uploadProductImages accepts multipart/form-data with one or more "images"
// parts and appends them to the product gallery.
func (a *API) uploadProductImages(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlID(r, "productId")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid productId")
		return
	}
	if _, err := a.Catalog.GetProduct(r.Context(), productID); err != nil {
		respondError(w, err)
		return
	}

	if err := r.ParseMultipartForm(a.Storage.MaxSize); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		respondMessage(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > a.MaxFiles {
		respondMessage(w, http.StatusBadRequest, "too many files")
		return
	}

	var inserted []catalog.Image
	for _, fh := range files {
		if fh.Size > a.Storage.MaxSize {
			respondMessage(w, http.StatusBadRequest, "file too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(w, err)
			return
		}
		url, err := a.Storage.Save(productID, f)
		f.Close()
		if err != nil {
			respondError(w, err)
			return
		}
		img, err := a.Catalog.AddImage(r.Context(), productID, url)
		if err != nil {
			if rmErr := a.Storage.Remove(productID, url); rmErr != nil {
				a.Log.Warn("orphaned upload", zap.String("url", url), zap.Error(rmErr))
			}
			respondError(w, err)
			return
		}
		inserted = append(inserted, *img)
	}
	respondData(w, http.StatusCreated, inserted)
}

func (a *API) deleteProductImage(w http.ResponseWriter, r *http.Request) {
	productID, okP := urlID(r, "productId")
	imageID, okI := urlID(r, "imageId")
	if !okP || !okI {
		respondMessage(w, http.StatusBadRequest, "Invalid params")
		return
	}

	img, err := a.Catalog.GetImage(r.Context(), productID, imageID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := a.Storage.Remove(productID, img.URL); err != nil {
		a.Log.Warn("remove image file", zap.String("url", img.URL), zap.Error(err))
	}
	if err := a.Catalog.DeleteImage(r.Context(), productID, imageID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Deleted")
}

type reorderReq struct {
	Items []catalog.ReorderItem `json:"items" validate:"required,min=1,dive"`
}

func (a *API) reorderProductImages(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlID(r, "productId")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	var req reorderReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	imgs, err := a.Catalog.ReorderImages(r.Context(), productID, req.Items)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, imgs)
}
