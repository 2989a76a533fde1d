package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/IADOZERO/weeks-focus/internal/middleware"
	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/services"
	"github.com/go-chi/chi/v5"
)

type APIHandler struct {
	planner   *services.PlannerService
	tokenRepo repository.APITokenRepository
}

func NewAPIHandler(planner *services.PlannerService, tokenRepo repository.APITokenRepository) *APIHandler {
	return &APIHandler{planner: planner, tokenRepo: tokenRepo}
}

func (handler *APIHandler) ListVisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	visions, err := handler.planner.Visions(ctx, user.ID)
	if err != nil {
		writeError(w, err, "failed to load visions")
		return
	}
	if visions == nil {
		visions = []models.Vision{}
	}
	writeJSON(w, http.StatusOK, visions)
}

type visionRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    models.VisionCategory  `json:"category"`
	Timeframe   models.VisionTimeframe `json:"timeframe"`
}

func (handler *APIHandler) CreateVision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request visionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	vision, err := handler.planner.CreateVision(ctx, user.ID, services.VisionInput{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		Timeframe:   request.Timeframe,
	})
	if err != nil {
		writeError(w, err, "failed to create vision")
		return
	}
	writeJSON(w, http.StatusCreated, vision)
}

func (handler *APIHandler) UpdateVision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request visionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	vision, err := handler.planner.UpdateVision(ctx, user.ID, chi.URLParam(r, "id"), services.VisionInput{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		Timeframe:   request.Timeframe,
	})
	if err != nil {
		writeError(w, err, "failed to update vision")
		return
	}
	writeJSON(w, http.StatusOK, vision)
}

func (handler *APIHandler) DeleteVision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if err := handler.planner.DeleteVision(ctx, user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "failed to delete vision")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *APIHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if r.URL.Query().Get("refresh") == "true" {
		if err := handler.planner.Refresh(ctx, user.ID); err != nil {
			writeError(w, err, "failed to refresh cycles")
			return
		}
	}

	cycles, err := handler.planner.Cycles(ctx, user.ID)
	if err != nil {
		writeError(w, err, "failed to load cycles")
		return
	}
	if cycles == nil {
		cycles = []models.Cycle{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

type cycleRequest struct {
	Name      string             `json:"name"`
	StartDate string             `json:"startDate"`
	Status    models.CycleStatus `json:"status"`
}

func (handler *APIHandler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request cycleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	startDate, ok := parseDate(w, request.StartDate, "startDate")
	if !ok {
		return
	}

	cycle, err := handler.planner.CreateCycle(ctx, user.ID, request.Name, startDate, request.Status)
	if err != nil {
		writeError(w, err, "failed to create cycle")
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

type cycleUpdateRequest struct {
	Name      *string             `json:"name"`
	StartDate *string             `json:"startDate"`
	Status    *models.CycleStatus `json:"status"`
}

func (handler *APIHandler) UpdateCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request cycleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	update := services.CycleUpdate{Name: request.Name, Status: request.Status}
	if request.StartDate != nil {
		startDate, ok := parseDate(w, *request.StartDate, "startDate")
		if !ok {
			return
		}
		update.StartDate = &startDate
	}

	cycle, err := handler.planner.UpdateCycle(ctx, user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		writeError(w, err, "failed to update cycle")
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (handler *APIHandler) DeleteCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if err := handler.planner.DeleteCycle(ctx, user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "failed to delete cycle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type objectiveRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Measurable  string `json:"measurable"`
	Deadline    string `json:"deadline"`
	VisionID    string `json:"visionId"`
}

func (handler *APIHandler) CreateObjective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request objectiveRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	deadline, ok := parseDate(w, request.Deadline, "deadline")
	if !ok {
		return
	}

	objective, err := handler.planner.CreateObjective(ctx, user.ID, chi.URLParam(r, "id"), services.ObjectiveInput{
		Title:       request.Title,
		Description: request.Description,
		Measurable:  request.Measurable,
		Deadline:    deadline,
		VisionID:    request.VisionID,
	})
	if err != nil {
		writeError(w, err, "failed to create objective")
		return
	}
	writeJSON(w, http.StatusCreated, objective)
}

func (handler *APIHandler) ToggleObjective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	objective, err := handler.planner.ToggleObjective(ctx, user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "failed to toggle objective")
		return
	}
	writeJSON(w, http.StatusOK, objective)
}

func (handler *APIHandler) DeleteObjective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if err := handler.planner.DeleteObjective(ctx, user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "failed to delete objective")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	WeekNumber    int             `json:"weekNumber"`
	Priority      models.Priority `json:"priority"`
	EstimatedTime *float64        `json:"estimatedTime"`
	Notes         string          `json:"notes"`
}

func (handler *APIHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request actionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	action, err := handler.planner.CreateAction(ctx, user.ID, chi.URLParam(r, "id"), services.ActionInput{
		Title:         request.Title,
		Description:   request.Description,
		WeekNumber:    request.WeekNumber,
		Priority:      request.Priority,
		EstimatedTime: request.EstimatedTime,
		Notes:         request.Notes,
	})
	if err != nil {
		writeError(w, err, "failed to create action")
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

type actionUpdateRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	WeekNumber    *int             `json:"weekNumber"`
	Priority      *models.Priority `json:"priority"`
	EstimatedTime *float64         `json:"estimatedTime"`
	Notes         *string          `json:"notes"`
}

func (handler *APIHandler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request actionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	action, err := handler.planner.UpdateAction(ctx, user.ID, chi.URLParam(r, "id"), services.ActionUpdate{
		Title:         request.Title,
		Description:   request.Description,
		WeekNumber:    request.WeekNumber,
		Priority:      request.Priority,
		EstimatedTime: request.EstimatedTime,
		Notes:         request.Notes,
	})
	if err != nil {
		writeError(w, err, "failed to update action")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (handler *APIHandler) ToggleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	action, err := handler.planner.ToggleAction(ctx, user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "failed to toggle action")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (handler *APIHandler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if err := handler.planner.DeleteAction(ctx, user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "failed to delete action")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	WeekNumber     int      `json:"weekNumber"`
	CompletionRate float64  `json:"completionRate"`
	Obstacles      []string `json:"obstacles"`
	Adjustments    []string `json:"adjustments"`
	Learnings      []string `json:"learnings"`
}

func (handler *APIHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	review, err := handler.planner.CreateWeeklyReview(ctx, user.ID, chi.URLParam(r, "id"), services.ReviewInput{
		WeekNumber:     request.WeekNumber,
		CompletionRate: request.CompletionRate,
		Obstacles:      request.Obstacles,
		Adjustments:    request.Adjustments,
		Learnings:      request.Learnings,
	})
	if err != nil {
		writeError(w, err, "failed to create review")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// WeekScores lists per-week completion for the cycle, frozen review
// rates taking precedence over live ones.
func (handler *APIHandler) WeekScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	cycles, err := handler.planner.Cycles(ctx, user.ID)
	if err != nil {
		writeError(w, err, "failed to load cycles")
		return
	}

	cycleID := chi.URLParam(r, "id")
	for _, cycle := range cycles {
		if cycle.ID == cycleID {
			writeJSON(w, http.StatusOK, map[string]any{
				"weeks":             services.WeekScores(cycle, time.Now()),
				"averageReviewRate": services.AverageReviewRate(cycle),
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "cycle not found"})
}

func (handler *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	cycles, err := handler.planner.Cycles(ctx, user.ID)
	if err != nil {
		writeError(w, err, "failed to load cycles")
		return
	}

	metrics := services.Dashboard(cycles, time.Now())
	if metrics == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cycle": nil})
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (handler *APIHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	tokens, err := handler.tokenRepo.FindAllForUser(ctx, user.ID)
	if err != nil {
		slog.Error("listing tokens", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tokens"})
		return
	}
	if tokens == nil {
		tokens = []models.APIToken{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (handler *APIHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request struct {
		Name  string `json:"name"`
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if request.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	rawToken := generateToken()
	created, err := handler.tokenRepo.Create(ctx, models.APIToken{
		Name:            request.Name,
		Scope:           request.Scope,
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: user.ID,
	})
	if err != nil {
		slog.Error("creating token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    created.ID,
		"name":  created.Name,
		"token": rawToken,
	})
}

func (handler *APIHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	if err := handler.tokenRepo.Delete(ctx, user.ID, chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "token not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func parseDate(w http.ResponseWriter, value string, field string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " must be a YYYY-MM-DD date"})
		return time.Time{}, false
	}
	return date, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrCapacity):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		slog.Error(fallback, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
