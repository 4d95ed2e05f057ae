package controllers

import (
	"net/http"

	"careassist/careassist/utils/jsonutils"
)

type HealthController struct {
	model string
}

func NewHealthController(model string) *HealthController {
	return &HealthController{model: model}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jsonutils.WriteIndented(w, map[string]string{"status": "ok", "model": h.model})
}
