package routes

import (
	"encoding/json"
	"net/http"

	"careassist/careassist/controllers"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"

	"github.com/go-chi/chi/v5"
)

// CompletionRoutes serves POST /chat: a stateless transcript-in, reply-out call.
func CompletionRoutes(ctrl *controllers.CompletionController) chi.Router {
	r := chi.NewRouter()
	r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req types.CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Messages array is required")
			return
		}
		res, err := ctrl.Complete(r.Context(), req)
		if err != nil {
			writeError(w, errs.HTTPStatus(err), ctrl.ErrorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
	return r
}
