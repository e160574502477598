package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/forms"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"gorm.io/gorm"
)

const slotDateLayout = "2006-01-02"

// ScheduleHandler manages the bookable slots behind the booking widgets.
type ScheduleHandler struct {
	db   *gorm.DB
	auth *auth.AuthHandler
	now  func() time.Time
}

func NewScheduleHandler(db *gorm.DB, authHandler *auth.AuthHandler) *ScheduleHandler {
	return &ScheduleHandler{db: db, auth: authHandler, now: time.Now}
}

type AvailableSlotsInput struct {
	PublicID string `path:"publicID"`
}

type AvailableSlotsOutput struct {
	Body struct {
		Slots map[string][]forms.Slot `json:"slots"`
	}
}

// HandleAvailableSlots returns the open future slots of a booking widget,
// grouped by date. Past dates and already-booked slots are filtered out
// server-side so the calendar never offers them.
func (h *ScheduleHandler) HandleAvailableSlots(ctx context.Context, input *AvailableSlotsInput) (*AvailableSlotsOutput, error) {
	var widget models.Widget
	err := h.db.Where("public_id = ?", input.PublicID).First(&widget).Error
	if err != nil || !widget.IsActive {
		return nil, huma.Error404NotFound("Widget not found")
	}

	today := h.now().Format(slotDateLayout)
	var slots []models.ScheduleSlot
	err = h.db.Where("widget_id = ? AND booked = ? AND date >= ?", widget.ID, false, today).
		Order("date, s_time").
		Find(&slots).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load slots")
	}

	out := &AvailableSlotsOutput{}
	out.Body.Slots = map[string][]forms.Slot{}
	for _, s := range slots {
		out.Body.Slots[s.Date] = append(out.Body.Slots[s.Date], forms.Slot{
			ID:           s.ID,
			STime:        s.STime,
			EmployeeName: s.EmployeeName,
		})
	}
	return out, nil
}

// SlotInput is one slot row in a create request.
type SlotInput struct {
	Date         string `json:"date" doc:"Date in 2006-01-02 form"`
	STime        string `json:"stime"`
	EmployeeName string `json:"employee_name"`
}

type CreateSlotsInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Slots []SlotInput `json:"slots"`
	}
}

type CreateSlotsOutput struct {
	Body struct {
		Message string `json:"message"`
		Created int    `json:"created"`
	}
}

// HandleCreateSlots adds availability to one of the operator's booking
// widgets.
func (h *ScheduleHandler) HandleCreateSlots(ctx context.Context, input *CreateSlotsInput) (*CreateSlotsOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	var widget models.Widget
	if err := h.db.Where("user_id = ?", userID).First(&widget, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Widget not found")
	}

	rows := make([]models.ScheduleSlot, 0, len(input.Body.Slots))
	for _, s := range input.Body.Slots {
		if _, err := time.Parse(slotDateLayout, s.Date); err != nil {
			return nil, huma.Error422UnprocessableEntity("Invalid date: " + s.Date)
		}
		rows = append(rows, models.ScheduleSlot{
			WidgetID:     widget.ID,
			Date:         s.Date,
			STime:        s.STime,
			EmployeeName: s.EmployeeName,
		})
	}
	if len(rows) == 0 {
		return nil, huma.Error422UnprocessableEntity("No slots given")
	}

	if err := h.db.Create(&rows).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create slots")
	}

	out := &CreateSlotsOutput{}
	out.Body.Message = "Slots created"
	out.Body.Created = len(rows)
	return out, nil
}
