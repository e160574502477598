package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/seemicrminc/tutorwidgets/internal/models"
)

// ErrorForm renders when a widget cannot be resolved. It is a defined
// output, never a panic path.
type ErrorForm struct {
	Message string
}

func (e *ErrorForm) Kind() string { return "error" }
func (e *ErrorForm) Height() int  { return 320 }

func (e *ErrorForm) Describe() View {
	return View{Kind: e.Kind(), Title: "Widget Error", Message: e.Message}
}

// CalendarBookingForm is the book-from-calendar placeholder panel. The
// type dispatches and renders, the booking flow itself is not live yet.
type CalendarBookingForm struct {
	cfg Config
}

func NewCalendarBooking(cfg Config) *CalendarBookingForm {
	return &CalendarBookingForm{cfg: cfg}
}

func (c *CalendarBookingForm) Kind() string { return models.WidgetBookCalendar }
func (c *CalendarBookingForm) Height() int  { return 380 }

func (c *CalendarBookingForm) Describe() View {
	title := c.cfg.WidgetTitle
	if title == "" {
		title = "Book from Calendar"
	}
	return View{
		Kind:        c.Kind(),
		Title:       title,
		AccentColor: c.cfg.AccentColor,
		Message:     "Calendar booking widget - Coming Soon",
	}
}

// HTTPSubmitter posts submission payloads as JSON to the public submit
// endpoint.
type HTTPSubmitter struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSubmitter(endpoint string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTPSubmitter) Submit(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	se := &SubmitError{}
	if err := json.NewDecoder(resp.Body).Decode(se); err != nil || (se.Message == "" && len(se.Messages) == 0) {
		se.Message = fmt.Sprintf("An error occurred. Please try again. (HTTP %d)", resp.StatusCode)
	}
	return se
}
