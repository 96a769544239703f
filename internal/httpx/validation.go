package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"
)

var validate = validatorv10.New()

var errBadRequest = errors.New("bad request")

// bindJSON decodes the body into out and runs struct validation. On failure
// it writes the 400 itself and returns a sentinel so handlers just return.
func bindJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid json")
		return errBadRequest
	}
	if err := validate.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "validation failed",
			"fields":  validationFields(err),
		})
		return errBadRequest
	}
	return nil
}

func validationFields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
