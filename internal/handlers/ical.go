package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/IADOZERO/weeks-focus/internal/models"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/services"
)

type ICalHandler struct {
	planner   *services.PlannerService
	tokenRepo repository.APITokenRepository
}

func NewICalHandler(planner *services.PlannerService, tokenRepo repository.APITokenRepository) *ICalHandler {
	return &ICalHandler{planner: planner, tokenRepo: tokenRepo}
}

// Feed serves the current cycle as an iCal calendar. Objective
// deadlines become all-day events and the current week's actions
// become todos, so calendar apps can subscribe with a scoped token.
func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := handler.tokenRepo.FindByTokenHash(r.Context(), repository.HashToken(rawToken))
	if err != nil || token.Scope != "ical" ||
		(token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now())) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cycles, err := handler.planner.Cycles(r.Context(), token.CreatedByUserID)
	if err != nil {
		slog.Error("loading cycles for ical feed", "error", err)
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//Weeks Focus//Weeks Focus//EN")
	calendar.SetXWRCalName("Weeks Focus")

	cycle := services.CurrentCycle(cycles)
	if cycle != nil {
		currentWeek := services.CurrentWeek(cycle.StartDate, now)

		for _, objective := range cycle.Objectives {
			event := calendar.AddEvent(fmt.Sprintf("objective-%s@weeks-focus", objective.ID))
			event.SetDtStampTime(objective.CreatedAt.UTC())
			event.SetAllDayStartAt(objective.Deadline)
			event.SetAllDayEndAt(objective.Deadline.AddDate(0, 0, 1))
			event.SetSummary(fmt.Sprintf("Deadline: %s", objective.Title))
			if objective.Measurable != "" {
				event.SetDescription(objective.Measurable)
			}
			if objective.Completed {
				event.SetStatus(ics.ObjectStatusCompleted)
			}

			for _, action := range objective.Actions {
				if action.WeekNumber != currentWeek {
					continue
				}
				addActionEvent(calendar, *cycle, objective, action)
			}
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=weeks-focus.ics")
	w.Write([]byte(calendar.Serialize()))
}

func addActionEvent(calendar *ics.Calendar, cycle models.Cycle, objective models.Objective, action models.Action) {
	weekStart := cycle.StartDate.AddDate(0, 0, (action.WeekNumber-1)*7)

	event := calendar.AddEvent(fmt.Sprintf("action-%s@weeks-focus", action.ID))
	event.SetDtStampTime(action.CreatedAt.UTC())
	event.SetAllDayStartAt(weekStart)
	event.SetAllDayEndAt(weekStart.AddDate(0, 0, 7))
	event.SetSummary(action.Title)
	event.SetDescription(fmt.Sprintf("Objective: %s", objective.Title))
	if action.Completed {
		event.SetStatus(ics.ObjectStatusCompleted)
	}
}
