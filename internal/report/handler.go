package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func reportID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "reportId"))
}

func (h *Handler) SaveGoals(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id, err := reportID(r)
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}

	var req SaveGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	goals, err := h.service.SaveGoalsForReport(r.Context(), id, req.Goals)
	if err != nil {
		if errors.Is(err, grant.ErrGrantNotFound) || errors.Is(err, goal.ErrGoalTemplateNotFound) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		log.WithError(err).Error("Failed to save goals for report")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, goals)
}

func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id, err := reportID(r)
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}

	goals, err := h.service.GetGoalsForReport(r.Context(), id)
	if err != nil {
		log.WithError(err).Error("Failed to fetch goals for report")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, goals)
}

func (h *Handler) SaveObjectives(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id, err := reportID(r)
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	otherEntityID, err := uuid.Parse(chi.URLParam(r, "otherEntityId"))
	if err != nil {
		http.Error(w, "invalid other entity id", http.StatusBadRequest)
		return
	}

	var req SaveObjectivesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	objectives, err := h.service.SaveObjectivesForReport(r.Context(), id, otherEntityID, req.Objectives)
	if err != nil {
		log.WithError(err).Error("Failed to save objectives for report")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, objectives)
}

func (h *Handler) GetObjectives(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id, err := reportID(r)
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	otherEntityID, err := uuid.Parse(chi.URLParam(r, "otherEntityId"))
	if err != nil {
		http.Error(w, "invalid other entity id", http.StatusBadRequest)
		return
	}

	objectives, err := h.service.GetObjectivesForReport(r.Context(), id, otherEntityID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch objectives for report")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, objectives)
}
