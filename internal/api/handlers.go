package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/adaptation"
	"pedalcoach/internal/analysis"
	"pedalcoach/internal/service"
	"pedalcoach/internal/store"
)

// Coach is the part of the coach service the API serves
type Coach interface {
	LoadSeries(rng analysis.DateRange) ([]analysis.LoadSnapshot, error)
	CachedLoadSeries(rng analysis.DateRange) ([]analysis.LoadSnapshot, error)
	CurrentFitness() (analysis.LoadSnapshot, error)
	ActivityDetail(id string) (*service.ActivityDetail, error)
	ActivityDecoupling(id string) (*analysis.DecouplingEstimate, error)
	DetectWeek(weekOf time.Time) ([]store.WorkoutAdaptation, error)
	WeekAdaptations(weekOf time.Time) ([]store.WorkoutAdaptation, error)
	WeekSummary(weekOf time.Time) (adaptation.WeekSummary, error)
	Patterns() (*store.UserTrainingPatterns, error)
	RecomputePatterns() (*store.UserTrainingPatterns, error)
	UpdateFeedback(id string, reason, notes *string) (*store.WorkoutAdaptation, error)
	AdaptationHistory(plannedWorkoutID string) ([]store.WorkoutAdaptation, error)
}

type feedbackRequest struct {
	Reason *string `json:"reason"`
	Notes  *string `json:"notes"`
}

type fitnessResponse struct {
	analysis.LoadSnapshot
	Form string `json:"form"`
}

type Handler struct {
	coach Coach
}

func NewHandler(coach Coach) *Handler {
	return &Handler{coach: coach}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/load", h.handleLoad).Methods("GET").Name("load-series")
	router.HandleFunc("/fitness", h.handleFitness).Methods("GET").Name("current-fitness")
	router.HandleFunc("/activities/{id}", h.handleActivity).Methods("GET").Name("activity-detail")
	router.HandleFunc("/activities/{id}/decoupling", h.handleDecoupling).Methods("GET").Name("activity-decoupling")
	router.HandleFunc("/weeks/{start}/detect", h.handleDetectWeek).Methods("POST").Name("detect-week")
	router.HandleFunc("/weeks/{start}/adaptations", h.handleWeekAdaptations).Methods("GET").Name("week-adaptations")
	router.HandleFunc("/weeks/{start}/summary", h.handleWeekSummary).Methods("GET").Name("week-summary")
	router.HandleFunc("/patterns", h.handlePatterns).Methods("GET").Name("patterns")
	router.HandleFunc("/patterns/recompute", h.handleRecomputePatterns).Methods("POST").Name("recompute-patterns")
	router.HandleFunc("/adaptations/{id}/feedback", h.handleFeedback).Methods("PATCH").Name("adaptation-feedback")
	router.HandleFunc("/planned/{id}/history", h.handleAdaptationHistory).Methods("GET").Name("adaptation-history")
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
		return
	}

	// cached=true serves the last computed snapshots without recomputing
	load := h.coach.LoadSeries
	if r.URL.Query().Get("cached") == "true" {
		load = h.coach.CachedLoadSeries
	}

	series, err := load(analysis.DateRange{From: from, To: to})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handler) handleFitness(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.coach.CurrentFitness()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fitnessResponse{LoadSnapshot: snap, Form: analysis.FormDescription(snap.TSB)})
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	detail, err := h.coach.ActivityDetail(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleDecoupling(w http.ResponseWriter, r *http.Request) {
	d, err := h.coach.ActivityDecoupling(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if d == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDetectWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	detected, err := h.coach.DetectWeek(week)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(detected))
}

func (h *Handler) handleWeekAdaptations(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	adaptations, err := h.coach.WeekAdaptations(week)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(adaptations))
}

func (h *Handler) handleWeekSummary(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	summary, err := h.coach.WeekSummary(week)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handlePatterns(w http.ResponseWriter, _ *http.Request) {
	patterns, err := h.coach.Patterns()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

func (h *Handler) handleRecomputePatterns(w http.ResponseWriter, _ *http.Request) {
	patterns, err := h.coach.RecomputePatterns()
	if errors.Is(err, service.ErrNoHistory) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("adaptation feedback, unmarshal json body: %s", err)
		writeError(w, http.StatusBadRequest, "invalid_body", "body must be {\"reason\": ..., \"notes\": ...}")
		return
	}

	updated, err := h.coach.UpdateFeedback(mux.Vars(r)["id"], req.Reason, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleAdaptationHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.coach.AdaptationHistory(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(history))
}

func weekParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	week, err := parseDate(mux.Vars(r)["start"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "week start must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return week, true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(analysis.DateLayout, s)
}

func nonNil(a []store.WorkoutAdaptation) []store.WorkoutAdaptation {
	if a == nil {
		return []store.WorkoutAdaptation{}
	}
	return a
}

// writeServiceError maps service and store errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	var rangeErr *analysis.InvalidRangeError
	switch {
	case errors.As(err, &rangeErr):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, store.ErrActivityNotFound),
		errors.Is(err, store.ErrAdaptationNotFound),
		errors.Is(err, store.ErrPatternsNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrPatternsVersionConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.WithError(err).Error("serving request")
		writeError(w, http.StatusInternalServerError, "internal", "unexpected server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("encoding response")
	}
}
