// careassist/routes/sessions.go
package routes

import (
	"net/http"
	"strconv"

	"careassist/careassist/controllers"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"

	"github.com/go-chi/chi/v5"
)

func SessionRoutes(ctrl *controllers.SessionController, chat *controllers.ChatController) chi.Router {
	r := chi.NewRouter()

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.List(), http.StatusOK, nil
	}))

	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		out, err := ctrl.Create(r.Context())
		if err != nil {
			return fail(err)
		}
		return out, http.StatusCreated, nil
	}))

	// clear all
	r.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
		out, err := ctrl.ClearAll(r.Context())
		if err != nil {
			return fail(err)
		}
		return out, http.StatusOK, nil
	}))

	r.Get("/active", handleJSON(func(r *http.Request) (any, int, error) {
		s, err := ctrl.Active()
		if err != nil {
			return fail(err)
		}
		return map[string]*types.Session{"session": s}, http.StatusOK, nil
	}))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			s, err := ctrl.Get(chi.URLParam(r, "id"))
			if err != nil {
				return fail(err)
			}
			return s, http.StatusOK, nil
		}))

		r.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
			out, err := ctrl.Delete(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				return fail(err)
			}
			return out, http.StatusOK, nil
		}))

		r.Put("/title", handleJSON(func(r *http.Request) (any, int, error) {
			var req struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &req); err != nil {
				return fail(err)
			}
			out, err := ctrl.Rename(r.Context(), chi.URLParam(r, "id"), req.Title)
			if err != nil {
				return fail(err)
			}
			return out, http.StatusOK, nil
		}))

		r.Post("/activate", handleJSON(func(r *http.Request) (any, int, error) {
			out, err := ctrl.Activate(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				return fail(err)
			}
			return out, http.StatusOK, nil
		}))

		r.Post("/messages", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.SendRequest
			if err := decodeBody(r, &req); err != nil {
				return fail(err)
			}
			res, err := chat.Send(r.Context(), chi.URLParam(r, "id"), req.Content)
			if err != nil {
				return fail(err)
			}
			return res, http.StatusOK, nil
		}))

		r.Get("/export", func(w http.ResponseWriter, r *http.Request) {
			file, err := ctrl.Export(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
			if err != nil {
				writeError(w, errs.HTTPStatus(err), errs.MessageOf(err))
				return
			}
			w.Header().Set("Content-Type", file.ContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
			if file.ArchiveKey != "" {
				w.Header().Set("X-Archive-Key", file.ArchiveKey)
			}
			w.WriteHeader(http.StatusOK)
			w.Write(file.Data)
		})

		r.Get("/archive", handleJSON(func(r *http.Request) (any, int, error) {
			names, err := ctrl.ArchivedExports(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				return fail(err)
			}
			return names, http.StatusOK, nil
		}))

		r.Get("/archive/{filename}", func(w http.ResponseWriter, r *http.Request) {
			data, err := ctrl.ArchivedExport(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "filename"))
			if err != nil {
				writeError(w, errs.HTTPStatus(err), errs.MessageOf(err))
				return
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
		})
	})

	return r
}

// MessageRoutes serves POST / which sends to the selected session.
func MessageRoutes(chat *controllers.ChatController) chi.Router {
	r := chi.NewRouter()
	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.SendRequest
		if err := decodeBody(r, &req); err != nil {
			return fail(err)
		}
		res, err := chat.Send(r.Context(), req.SessionID, req.Content)
		if err != nil {
			return fail(err)
		}
		return res, http.StatusOK, nil
	}))
	return r
}

func SettingsRoutes(ctrl *controllers.SessionController) chi.Router {
	r := chi.NewRouter()
	r.Get("/api-key", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.APIKeyStatus(), http.StatusOK, nil
	}))
	r.Put("/api-key", handleJSON(func(r *http.Request) (any, int, error) {
		var req struct {
			APIKey string `json:"apiKey"`
		}
		if err := decodeBody(r, &req); err != nil {
			return fail(err)
		}
		out, err := ctrl.SetAPIKey(r.Context(), req.APIKey)
		if err != nil {
			return fail(err)
		}
		return out, http.StatusOK, nil
	}))
	return r
}
