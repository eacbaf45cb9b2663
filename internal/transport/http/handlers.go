package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/service"
	"ritual-service/internal/transport/http/middleware"

	"github.com/sirupsen/logrus"
)

// RitualHandler handles ritual engine HTTP requests
type RitualHandler struct {
	rituals service.RitualService
}

// NewRitualHandler creates a new ritual handler
func NewRitualHandler(rituals service.RitualService) *RitualHandler {
	return &RitualHandler{rituals: rituals}
}

type activityResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Difficulty      string `json:"difficulty"`
	DurationMinutes int32  `json:"duration_minutes"`
	XPReward        int64  `json:"xp_reward"`
	GemReward       int64  `json:"gem_reward"`
}

type assignmentResponse struct {
	Date       string             `json:"date"`
	Activities []activityResponse `json:"activities"`
	RerollUsed bool               `json:"reroll_used"`
}

func (h *RitualHandler) assignmentToResponse(assignment *entity.DailyAssignment) assignmentResponse {
	resp := assignmentResponse{
		Date:       assignment.Date,
		RerollUsed: assignment.RerollUsed,
	}
	for _, id := range assignment.ActivityIDs {
		activity, ok := h.rituals.GetActivity(id)
		if !ok {
			resp.Activities = append(resp.Activities, activityResponse{ID: id})
			continue
		}
		resp.Activities = append(resp.Activities, activityResponse{
			ID:              activity.ID,
			Title:           activity.Title,
			Description:     activity.Description,
			Category:        activity.Category,
			Difficulty:      activity.Difficulty.String(),
			DurationMinutes: activity.DurationMinutes,
			XPReward:        activity.XPReward,
			GemReward:       activity.GemReward,
		})
	}
	return resp
}

// TodayAssignment returns (creating if needed) today's assignment
// @Summary Get or create today's assignment
// @Tags rituals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{date=string,activities=[]object,reroll_used=bool}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/v1/rituals/today [post]
func (h *RitualHandler) TodayAssignment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	assignment, err := h.rituals.GetOrCreateTodayAssignment(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.assignmentToResponse(assignment))
}

// Reroll replaces today's assignment, once per day
// @Summary Reroll today's assignment
// @Tags rituals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{date=string,activities=[]object,reroll_used=bool}
// @Failure 409 {object} object{error=string}
// @Router /api/v1/rituals/reroll [post]
func (h *RitualHandler) Reroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	assignment, err := h.rituals.Reroll(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.assignmentToResponse(assignment))
}

// CompleteActivity records a completion attempt
// @Summary Complete an assigned activity
// @Tags rituals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{activity_id=string,engagement_seconds=int,reflection=string,mood=int} true "Completion attempt"
// @Success 200 {object} object{qualifies=bool,xp_granted=int,gems_granted=int,streak=int}
// @Failure 409 {object} object{error=string}
// @Router /api/v1/rituals/complete [post]
func (h *RitualHandler) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ActivityID        string `json:"activity_id"`
		EngagementSeconds int32  `json:"engagement_seconds"`
		Reflection        string `json:"reflection"`
		Mood              int32  `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActivityID == "" {
		http.Error(w, "activity_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.rituals.CompleteActivity(r.Context(), userID, req.ActivityID,
		req.EngagementSeconds, req.Reflection, req.Mood)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"qualifies":    result.Qualifies,
		"xp_granted":   result.XPGranted,
		"gems_granted": result.GemsGranted,
		"streak":       result.Streak,
	})
}

// SaveJournal stores or overwrites a reflection
// @Summary Save a journal entry for an assigned activity
// @Tags rituals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{activity_id=string,text=string,mood=int,tags=[]string,source=string} true "Journal entry"
// @Success 200 {object} object{date=string,activity_id=string,saved=bool}
// @Router /api/v1/rituals/journal [put]
func (h *RitualHandler) SaveJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ActivityID string   `json:"activity_id"`
		Text       string   `json:"text"`
		Mood       int32    `json:"mood"`
		Tags       []string `json:"tags"`
		Source     string   `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActivityID == "" {
		http.Error(w, "activity_id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.rituals.SaveJournal(r.Context(), userID, req.ActivityID,
		req.Text, req.Mood, req.Tags, entity.JournalSource(req.Source))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":        entry.Date,
		"activity_id": entry.ActivityID,
		"saved":       true,
	})
}

// ProgressionSummary returns currency totals and streak state
// @Summary Get progression summary
// @Tags rituals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{xp=int,gems=int,streak=int,longest_streak=int,tier=string}
// @Router /api/v1/rituals/summary [get]
func (h *RitualHandler) ProgressionSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.rituals.GetProgressionSummary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"xp":             summary.XPTotal,
		"gems":           summary.GemTotal,
		"streak":         summary.Streak,
		"longest_streak": summary.LongestStreak,
		"tier":           summary.Tier.String(),
	})
}

// History returns completion history
// @Summary Get completion history
// @Tags rituals
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} object{completions=[]object,total=int}
// @Router /api/v1/rituals/history [get]
func (h *RitualHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := parseQueryInt(r, "limit", 30)
	offset := parseQueryInt(r, "offset", 0)

	records, total, err := h.rituals.GetHistory(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	completions := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		completions = append(completions, map[string]interface{}{
			"date":               record.Date,
			"activity_id":        record.ActivityID,
			"engagement_seconds": record.EngagementSeconds,
			"mood":               record.Mood,
			"qualifies":          record.Qualifies,
			"xp_granted":         record.XPGranted,
			"gems_granted":       record.GemsGranted,
			"completed_at":       record.CompletedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"completions": completions,
		"total":       total,
	})
}

func (h *RitualHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrRerollAlreadyUsed):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "reroll already used today"})
	case errors.Is(err, entity.ErrAlreadyCompleted):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "activity already completed today"})
	case errors.Is(err, entity.ErrAssignmentNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no assignment for today yet"})
	case errors.Is(err, entity.ErrActivityNotAssigned):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "activity is not part of today's assignment"})
	case errors.Is(err, entity.ErrNoEligibleActivity):
		logrus.WithError(err).Error("catalog has no eligible activities")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "service misconfigured"})
	default:
		logrus.WithError(err).Error("request failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *RitualHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func parseQueryInt(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || value < 0 {
		return fallback
	}
	return int32(value)
}
