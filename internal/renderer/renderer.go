// Package renderer resolves a widget-type tag to the matching embeddable
// form. Rendering is total: any input, including a missing configuration
// or an unrecognized type, resolves to a defined form.
package renderer

import (
	"strings"

	"github.com/seemicrminc/tutorwidgets/internal/forms"
	"github.com/seemicrminc/tutorwidgets/internal/models"
)

// Type is the canonical widget type.
type Type int

const (
	TypeUnknown Type = iota
	TypeSignup
	TypeLogin
	TypeContact
	TypeBookAvailability
	TypeBookCalendar
)

func (t Type) String() string {
	switch t {
	case TypeSignup:
		return models.WidgetSignup
	case TypeLogin:
		return models.WidgetLogin
	case TypeContact:
		return models.WidgetContact
	case TypeBookAvailability:
		return models.WidgetBookAvailability
	case TypeBookCalendar:
		return models.WidgetBookCalendar
	}
	return "unknown"
}

// ParseType canonicalizes a raw type tag: case-insensitive, hyphen and
// underscore spellings both accepted.
func ParseType(raw string) Type {
	canonical := strings.ReplaceAll(strings.ToLower(raw), "-", "_")
	switch canonical {
	case "signup", "sign_up":
		return TypeSignup
	case "login":
		return TypeLogin
	case "contact":
		return TypeContact
	case "book_availability":
		return TypeBookAvailability
	case "book_calendar":
		return TypeBookCalendar
	}
	return TypeUnknown
}

// Options carries the renderer's collaborators and type-specific inputs.
// Only the booking form consumes Slots; the login form alone consumes
// LoginEndpoint and PortalURL.
type Options struct {
	Slots         map[string][]forms.Slot
	Announcer     forms.Announcer
	LoginEndpoint string
	PortalURL     string
}

// Render dispatches to exactly one of the five forms. A nil configuration
// or empty type yields the error form, as does an unrecognized type; the
// unrecognized raw value is echoed in the message.
func Render(widgetType string, cfg *forms.Config, opts Options) forms.Form {
	if cfg == nil || widgetType == "" {
		return &forms.ErrorForm{Message: "Widget configuration is missing"}
	}

	switch ParseType(widgetType) {
	case TypeSignup:
		return forms.NewSignup(*cfg, opts.Announcer)
	case TypeLogin:
		f := forms.NewLogin(*cfg, opts.LoginEndpoint, opts.Announcer)
		f.SetPortalURL(opts.PortalURL)
		return f
	case TypeContact:
		return forms.NewContact(*cfg, opts.Announcer)
	case TypeBookAvailability:
		return forms.NewBooking(*cfg, opts.Slots, opts.Announcer)
	case TypeBookCalendar:
		return forms.NewCalendarBooking(*cfg)
	}
	return &forms.ErrorForm{Message: "Unknown widget type: " + widgetType}
}
