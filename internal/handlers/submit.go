package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/forms"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"github.com/seemicrminc/tutorwidgets/internal/notifier"
	"gorm.io/gorm"
)

// SubmitHandler accepts public form submissions from the embedded
// widgets. It validates against the widget's own field definitions, not
// against whatever the embedding page claims.
type SubmitHandler struct {
	db       *gorm.DB
	notifier notifier.Notifier
}

func NewSubmitHandler(db *gorm.DB, n notifier.Notifier) *SubmitHandler {
	return &SubmitHandler{db: db, notifier: n}
}

type SubmitInput struct {
	PublicID string         `path:"publicID"`
	Body     map[string]any `doc:"Submission keyed by field name, plus student_type, schedule_id and a custom_fields map keyed by field id"`
}

type SubmitOutput struct {
	Body struct {
		Message      string `json:"message"`
		SubmissionID uint   `json:"submission_id"`
	}
}

func (h *SubmitHandler) HandleSubmit(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
	var widget models.Widget
	err := h.db.Preload("Fields").Where("public_id = ?", input.PublicID).First(&widget).Error
	if err != nil || !widget.IsActive {
		return nil, huma.Error404NotFound("Widget not found")
	}

	studentType, scheduleID, values := flattenBody(&widget, input.Body)

	messages := validateSubmission(&widget, studentType, values)
	if len(messages) > 0 {
		errs := make([]error, 0, len(messages))
		for field, msg := range messages {
			errs = append(errs, &huma.ErrorDetail{Location: "body." + field, Message: msg})
		}
		return nil, huma.Error422UnprocessableEntity("Validation failed", errs...)
	}

	submission := models.Submission{
		WidgetID:    widget.ID,
		StudentType: studentType,
		ScheduleID:  scheduleID,
		Values:      values,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if widget.WidgetType == models.WidgetBookAvailability {
			if err := bookSlot(tx, widget.ID, scheduleID); err != nil {
				return err
			}
		}
		return tx.Create(&submission).Error
	})
	if errors.Is(err, errSlotTaken) {
		return nil, huma.Error409Conflict("That slot is no longer available")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to store submission")
	}

	if h.notifier != nil {
		if err := h.notifier.NotifySubmission(widget, submission); err != nil {
			log.Printf("Failed to notify submission %d: %v", submission.ID, err)
		}
	}

	out := &SubmitOutput{}
	out.Body.Message = widget.SuccessMessage
	out.Body.SubmissionID = submission.ID
	return out, nil
}

// flattenBody separates the routing keys from the field values. The body
// is keyed by field name, except custom_fields, which the forms key by
// field id; those are resolved back to names against the widget's own
// field list. Unresolvable ids keep their id key rather than being lost.
func flattenBody(widget *models.Widget, body map[string]any) (studentType string, scheduleID uint, values map[string]string) {
	values = map[string]string{}
	if body == nil {
		return
	}

	nameByID := make(map[string]string, len(widget.Fields))
	for _, f := range widget.Fields {
		nameByID[strconv.FormatUint(uint64(f.ID), 10)] = f.FieldName
	}

	for k, v := range body {
		switch k {
		case "widget_id", "app_detail_id":
			// identification, already resolved from the path
		case "student_type":
			studentType, _ = v.(string)
		case "schedule_id":
			if n, ok := v.(float64); ok {
				scheduleID = uint(n)
			}
		case "custom_fields":
			custom, ok := v.(map[string]any)
			if !ok {
				continue
			}
			for id, cv := range custom {
				s, _ := cv.(string)
				if name, ok := nameByID[id]; ok {
					values[name] = s
				} else {
					values[id] = s
				}
			}
		default:
			if s, ok := v.(string); ok {
				values[k] = s
			}
		}
	}
	return
}

var errSlotTaken = errors.New("slot already booked")

// bookSlot marks the chosen slot as booked, failing if someone got there
// first.
func bookSlot(tx *gorm.DB, widgetID, scheduleID uint) error {
	if scheduleID == 0 {
		return errSlotTaken
	}
	res := tx.Model(&models.ScheduleSlot{}).
		Where("id = ? AND widget_id = ? AND booked = ?", scheduleID, widgetID, false).
		Update("booked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errSlotTaken
	}
	return nil
}

// validateSubmission applies the widget's required fields plus the
// built-in identity fields every form collects.
func validateSubmission(widget *models.Widget, studentType string, values map[string]string) map[string]string {
	messages := map[string]string{}

	require := func(name, label string) {
		if values[name] == "" {
			messages[name] = label + " is required"
		}
	}

	require("first_name", "First name")
	require("last_name", "Last name")

	switch widget.WidgetType {
	case models.WidgetContact:
		require("message", "Message")
		fallthrough
	case models.WidgetSignup:
		require("email", "Email")
		if v := values["email"]; v != "" && !forms.ValidEmail(v) {
			messages["email"] = "Enter a valid email address"
		}
	}

	if studentType == "child" {
		require("parent_first_name", "Parent first name")
		require("parent_last_name", "Parent last name")
		require("parent_email", "Parent email")
		require("parent_phone", "Parent phone")
		if v := values["parent_email"]; v != "" && !forms.ValidEmail(v) {
			messages["parent_email"] = "Enter a valid email address"
		}
	}

	for _, f := range widget.Fields {
		if fields.IsDefaultField(f.FieldName) || !f.IsRequired {
			continue
		}
		if f.CollectionType == fields.OncePerStudent {
			continue
		}
		if values[f.FieldName] == "" {
			messages[f.FieldName] = f.FieldName + " is required"
		}
	}

	return messages
}
