// Package forms implements the embeddable widget form engines: signup,
// login, contact and booking. Each form is a small state machine over
// field values, per-step required validation, an in-flight submit guard
// and a terminal success state, mirroring what the embedded frames show.
package forms

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
)

// Config is the widget configuration a form renders from.
type Config struct {
	ID             uint                 `json:"id"`
	PublicID       string               `json:"public_id"`
	AppDetailID    uint                 `json:"app_detail_id"`
	WidgetTitle    string               `json:"widget_title"`
	AccentColor    string               `json:"accent_color"`
	StudentType    string               `json:"student_type"`
	SuccessMessage string               `json:"success_message"`
	Fields         []fields.CustomField `json:"custom_fields"`
}

// Slot is one bookable time slot.
type Slot struct {
	ID           uint   `json:"id"`
	STime        string `json:"stime"`
	EmployeeName string `json:"employee_name"`
}

// Form is the common surface the renderer dispatches to.
type Form interface {
	Kind() string
	Height() int
	Describe() View
}

// View is a serializable summary of a form's current state, used by the
// preview routes.
type View struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	AccentColor string `json:"accent_color,omitempty"`
	Message     string `json:"message,omitempty"`
	Step        int    `json:"step,omitempty"`
	TotalSteps  int    `json:"total_steps,omitempty"`
	Done        bool   `json:"done,omitempty"`
}

// Announcer receives the cross-frame resize broadcasts. Delivery is
// best-effort: implementations must not block and may drop messages.
type Announcer interface {
	Announce(widgetID string, height int)
}

// Submitter delivers a submission payload to the public submit endpoint.
type Submitter interface {
	Submit(ctx context.Context, payload map[string]any) error
}

// SubmitError is a server-side rejection of a submission. Messages, when
// present, is keyed by field name.
type SubmitError struct {
	Message  string            `json:"message,omitempty"`
	Messages map[string]string `json:"messages,omitempty"`
}

func (e *SubmitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "submission rejected"
}

// ErrSubmitInFlight is returned when a submit is attempted while one is
// already pending; the forms disable their submit affordance instead of
// fanning out requests.
var ErrSubmitInFlight = fmt.Errorf("forms: submit already in flight")

var validate = validator.New()

// ValidEmail reports whether v looks like a deliverable email address.
func ValidEmail(v string) bool {
	return validate.Var(v, "email") == nil
}

// Frame padding added to the estimated content height, matching what the
// embedded frames report.
const framePadding = 50

func announce(a Announcer, widgetID string, height int) {
	if a != nil {
		a.Announce(widgetID, height+framePadding)
	}
}
