package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Put("/{reportId}/goals", h.SaveGoals)
	r.Get("/{reportId}/goals", h.GetGoals)
	r.Put("/{reportId}/other-entities/{otherEntityId}/objectives", h.SaveObjectives)
	r.Get("/{reportId}/other-entities/{otherEntityId}/objectives", h.GetObjectives)

	return r
}
