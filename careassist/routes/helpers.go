package routes

import (
	"encoding/json"
	"net/http"

	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"
)

// handleJSON runs handler and writes its result, or {"error": ...} with the
// returned status.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, status, errs.MessageOf(err))
			return
		}
		writeJSON(w, status, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusNoContent {
		return
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// fail pairs an error with the status its kind maps to.
func fail(err error) (any, int, error) {
	return nil, errs.HTTPStatus(err), err
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
