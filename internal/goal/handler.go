package goal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func recipientID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "recipientId"))
}

func parseIDList(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	rid, err := recipientID(r)
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		http.Error(w, "invalid goal ids", http.StatusBadRequest)
		return
	}
	if len(ids) == 0 {
		http.Error(w, "ids required", http.StatusBadRequest)
		return
	}

	goals, err := h.service.GoalsByIDAndRecipient(r.Context(), ids, rid)
	if err != nil {
		log.WithError(err).Error("Failed to fetch goals")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, goals)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	rid, err := recipientID(r)
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "goalId"))
	if err != nil {
		http.Error(w, "invalid goal id", http.StatusBadRequest)
		return
	}

	goal, err := h.service.GoalByIDAndRecipient(r.Context(), id, rid)
	if err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to fetch goal")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, goal)
}

type destroyRequest struct {
	GoalIDs []uuid.UUID `json:"goalIds"`
}

func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	rid, err := recipientID(r)
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	var req destroyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.GoalIDs) == 0 {
		http.Error(w, "goalIds required", http.StatusBadRequest)
		return
	}

	result, err := h.service.DestroyGoals(r.Context(), req.GoalIDs, rid)
	if err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrGoalOnReport) {
			http.Error(w, "goal is referenced by a report", http.StatusConflict)
			return
		}
		log.WithError(err).Error("Failed to destroy goals")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, result)
}
