package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/seemicrminc/tutorwidgets/internal/models"
)

const dateLayout = "2006-01-02"

// Day is one calendar cell. Days in the past or without slots are inert;
// days with at least one future slot are selectable and marked.
type Day struct {
	Day        int    `json:"day"`
	Date       string `json:"date"`
	HasSlots   bool   `json:"has_slots"`
	Selectable bool   `json:"selectable"`
	Selected   bool   `json:"selected"`
}

// BookingForm is the two-step booking flow: a calendar plus slot list,
// then a signup-style student/parent info step. The form never fetches
// slots itself; availability is supplied wholesale by the caller.
type BookingForm struct {
	cfg       Config
	announcer Announcer
	slots     map[string][]Slot
	now       func() time.Time

	step         int
	month        time.Time
	selectedDate string
	selectedSlot *Slot
	studentType  string
	values       map[string]string
	errs         map[string]string

	submitting bool
	done       bool
	submitErr  string
}

func NewBooking(cfg Config, slots map[string][]Slot, a Announcer) *BookingForm {
	if slots == nil {
		slots = map[string][]Slot{}
	}
	st := "adult"
	if cfg.StudentType == models.StudentChildOnly {
		st = "child"
	}
	b := &BookingForm{
		cfg:         cfg,
		announcer:   a,
		slots:       slots,
		now:         time.Now,
		step:        1,
		studentType: st,
		values:      map[string]string{},
		errs:        map[string]string{},
	}
	y, m, _ := b.now().Date()
	b.month = time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
	return b
}

func (b *BookingForm) Kind() string { return models.WidgetBookAvailability }

// SetClock injects the current-time source; tests pin the calendar with it.
func (b *BookingForm) SetClock(now func() time.Time) {
	b.now = now
	y, m, _ := now().Date()
	b.month = time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
}

func (b *BookingForm) Step() int                 { return b.step }
func (b *BookingForm) Month() time.Time          { return b.month }
func (b *BookingForm) SelectedDate() string      { return b.selectedDate }
func (b *BookingForm) SelectedSlot() *Slot       { return b.selectedSlot }
func (b *BookingForm) StudentType() string       { return b.studentType }
func (b *BookingForm) Done() bool                { return b.done }
func (b *BookingForm) Errors() map[string]string { return b.errs }
func (b *BookingForm) SubmitError() string       { return b.submitErr }

func (b *BookingForm) NextMonth() {
	b.month = b.month.AddDate(0, 1, 0)
	announce(b.announcer, b.cfg.PublicID, b.Height())
}

func (b *BookingForm) PrevMonth() {
	b.month = b.month.AddDate(0, -1, 0)
	announce(b.announcer, b.cfg.PublicID, b.Height())
}

// MonthGrid lays out the visible month.
func (b *BookingForm) MonthGrid() []Day {
	today := b.today()
	last := b.month.AddDate(0, 1, -1)

	grid := make([]Day, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		cell := time.Date(b.month.Year(), b.month.Month(), d, 0, 0, 0, 0, time.Local)
		dateStr := cell.Format(dateLayout)
		hasSlots := len(b.slots[dateStr]) > 0
		grid = append(grid, Day{
			Day:        d,
			Date:       dateStr,
			HasSlots:   hasSlots,
			Selectable: hasSlots && !cell.Before(today),
			Selected:   b.selectedDate == dateStr,
		})
	}
	return grid
}

func (b *BookingForm) today() time.Time {
	y, m, d := b.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// SelectDate picks a day, revealing its slot list. Inert days are ignored.
func (b *BookingForm) SelectDate(date string) bool {
	cell, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return false
	}
	if cell.Before(b.today()) || len(b.slots[date]) == 0 {
		return false
	}
	b.selectedDate = date
	announce(b.announcer, b.cfg.PublicID, b.Height())
	return true
}

// DaySlots lists the slots of the selected day, in order.
func (b *BookingForm) DaySlots() []Slot {
	if b.selectedDate == "" {
		return nil
	}
	return b.slots[b.selectedDate]
}

// SelectSlot picks a slot from the selected day and advances to the info
// step.
func (b *BookingForm) SelectSlot(id uint) bool {
	for _, s := range b.slots[b.selectedDate] {
		if s.ID == id {
			slot := s
			b.selectedSlot = &slot
			b.step = 2
			announce(b.announcer, b.cfg.PublicID, b.Height())
			return true
		}
	}
	return false
}

// Back returns to the calendar, keeping the selected date.
func (b *BookingForm) Back() {
	if b.step == 2 {
		b.step = 1
		announce(b.announcer, b.cfg.PublicID, b.Height())
	}
}

// SetStudentType mirrors the signup toggle.
func (b *BookingForm) SetStudentType(t string) {
	switch {
	case t == "adult" && b.cfg.StudentType != models.StudentChildOnly:
	case t == "child" && b.cfg.StudentType != models.StudentAdultOnly:
	default:
		return
	}
	if b.studentType != t {
		b.studentType = t
		announce(b.announcer, b.cfg.PublicID, b.Height())
	}
}

func (b *BookingForm) SetValue(name, v string) {
	b.values[name] = v
	delete(b.errs, name)
}

func (b *BookingForm) validate() bool {
	errs := map[string]string{}
	if b.selectedSlot == nil {
		errs["schedule_id"] = "Select a time slot"
	}
	if b.values["first_name"] == "" {
		errs["first_name"] = "First name is required"
	}
	if b.values["last_name"] == "" {
		errs["last_name"] = "Last name is required"
	}
	if b.studentType == "child" {
		if b.values["parent_first_name"] == "" {
			errs["parent_first_name"] = "Parent first name is required"
		}
		if b.values["parent_last_name"] == "" {
			errs["parent_last_name"] = "Parent last name is required"
		}
		switch {
		case b.values["parent_email"] == "":
			errs["parent_email"] = "Parent email is required"
		case !ValidEmail(b.values["parent_email"]):
			errs["parent_email"] = "Enter a valid email address"
		}
		if b.values["parent_phone"] == "" {
			errs["parent_phone"] = "Parent phone is required"
		}
	}
	b.errs = errs
	return len(errs) == 0
}

// Payload builds the booking submission. Parent keys are absent for adult
// students regardless of what was typed before the toggle.
func (b *BookingForm) Payload() map[string]any {
	p := map[string]any{
		"widget_id":     b.cfg.ID,
		"app_detail_id": b.cfg.AppDetailID,
		"student_type":  b.studentType,
		"first_name":    b.values["first_name"],
		"last_name":     b.values["last_name"],
	}
	if b.selectedSlot != nil {
		p["schedule_id"] = b.selectedSlot.ID
	}
	if b.studentType == "child" {
		p["parent_first_name"] = b.values["parent_first_name"]
		p["parent_last_name"] = b.values["parent_last_name"]
		p["parent_email"] = b.values["parent_email"]
		p["parent_phone"] = b.values["parent_phone"]
	}
	return p
}

func (b *BookingForm) Submit(ctx context.Context, submitter Submitter) error {
	if b.submitting {
		return ErrSubmitInFlight
	}
	if !b.validate() {
		return fmt.Errorf("booking: required fields missing")
	}

	b.submitting = true
	defer func() { b.submitting = false }()

	if err := submitter.Submit(ctx, b.Payload()); err != nil {
		if se, ok := err.(*SubmitError); ok && len(se.Messages) > 0 {
			for k, v := range se.Messages {
				b.errs[k] = v
			}
		} else {
			b.submitErr = err.Error()
		}
		return err
	}

	b.done = true
	b.submitErr = ""
	announce(b.announcer, b.cfg.PublicID, b.Height())
	return nil
}

func (b *BookingForm) Height() int {
	if b.done {
		return 260
	}
	if b.step == 1 {
		h := 560 // month grid
		if n := len(b.DaySlots()); n > 0 {
			h += 60 + n*64
		}
		return h
	}
	rows := 2
	if b.studentType == "child" {
		rows += 4
	}
	if b.cfg.StudentType == models.StudentShowBoth {
		rows++
	}
	return 200 + rows*88
}

func (b *BookingForm) Describe() View {
	v := View{
		Kind:        b.Kind(),
		Title:       b.cfg.WidgetTitle,
		AccentColor: b.cfg.AccentColor,
		Step:        b.step,
		TotalSteps:  2,
		Done:        b.done,
	}
	if b.done {
		v.Message = b.cfg.SuccessMessage
	}
	return v
}
