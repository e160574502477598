package forms

import (
	"context"
	"fmt"

	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/models"
)

// SignupForm is the two-step sign-up flow: Student Info, then Parent Info
// when the selected category is "child" and the widget policy allows it.
type SignupForm struct {
	cfg       Config
	announcer Announcer

	step        int
	studentType string
	values      map[string]string
	custom      map[uint]string
	errs        map[string]string

	submitting bool
	done       bool
	submitErr  string
}

func NewSignup(cfg Config, a Announcer) *SignupForm {
	st := "adult"
	if cfg.StudentType == models.StudentChildOnly {
		st = "child"
	}
	return &SignupForm{
		cfg:         cfg,
		announcer:   a,
		step:        1,
		studentType: st,
		values:      map[string]string{},
		custom:      map[uint]string{},
		errs:        map[string]string{},
	}
}

func (s *SignupForm) Kind() string { return models.WidgetSignup }

// TotalSteps is 2 only for a child signup under a policy that permits
// children; adult signups are a single step.
func (s *SignupForm) TotalSteps() int {
	if s.studentType == "child" && s.cfg.StudentType != models.StudentAdultOnly {
		return 2
	}
	return 1
}

func (s *SignupForm) Step() int                 { return s.step }
func (s *SignupForm) StudentType() string       { return s.studentType }
func (s *SignupForm) Done() bool                { return s.done }
func (s *SignupForm) Errors() map[string]string { return s.errs }
func (s *SignupForm) SubmitError() string       { return s.submitErr }

// SetStudentType switches the adult/child toggle. Only widgets with the
// show_both policy render the toggle, but the engine accepts the switch
// whenever the policy allows the requested category.
func (s *SignupForm) SetStudentType(t string) {
	switch {
	case t == "adult" && s.cfg.StudentType != models.StudentChildOnly:
	case t == "child" && s.cfg.StudentType != models.StudentAdultOnly:
	default:
		return
	}
	if s.studentType != t {
		s.studentType = t
		if s.step > s.TotalSteps() {
			s.step = s.TotalSteps()
		}
		announce(s.announcer, s.cfg.PublicID, s.Height())
	}
}

func (s *SignupForm) SetValue(name, v string) {
	s.values[name] = v
	delete(s.errs, name)
}

func (s *SignupForm) SetCustomValue(fieldID uint, v string) {
	s.custom[fieldID] = v
	delete(s.errs, fmt.Sprintf("custom_%d", fieldID))
}

// validateStep fills errs for the current step and reports validity.
func (s *SignupForm) validateStep() bool {
	errs := map[string]string{}

	if s.step == 1 {
		if s.values["first_name"] == "" {
			errs["first_name"] = "First name is required"
		}
		if s.values["last_name"] == "" {
			errs["last_name"] = "Last name is required"
		}
		switch {
		case s.values["email"] == "":
			errs["email"] = "Email is required"
		case !ValidEmail(s.values["email"]):
			errs["email"] = "Enter a valid email address"
		}
		if s.values["phone"] == "" {
			errs["phone"] = "Phone is required"
		}
		for _, f := range s.cfg.Fields {
			if f.CollectionType == fields.OncePerForm && f.IsRequired && s.custom[f.ID] == "" {
				errs[fmt.Sprintf("custom_%d", f.ID)] = f.FieldName + " is required"
			}
		}
	} else if s.step == 2 && s.studentType == "child" {
		if s.values["parent_first_name"] == "" {
			errs["parent_first_name"] = "Parent first name is required"
		}
		if s.values["parent_last_name"] == "" {
			errs["parent_last_name"] = "Parent last name is required"
		}
		switch {
		case s.values["parent_email"] == "":
			errs["parent_email"] = "Parent email is required"
		case !ValidEmail(s.values["parent_email"]):
			errs["parent_email"] = "Enter a valid email address"
		}
		if s.values["parent_phone"] == "" {
			errs["parent_phone"] = "Parent phone is required"
		}
	}

	s.errs = errs
	return len(errs) == 0
}

// Next advances one step, but only when the current step's required fields
// are filled.
func (s *SignupForm) Next() bool {
	if !s.validateStep() {
		return false
	}
	if s.step < s.TotalSteps() {
		s.step++
		announce(s.announcer, s.cfg.PublicID, s.Height())
		return true
	}
	return false
}

func (s *SignupForm) Prev() {
	if s.step > 1 {
		s.step--
		announce(s.announcer, s.cfg.PublicID, s.Height())
	}
}

// Payload builds the submission body. Parent fields are dropped entirely
// for adult students.
func (s *SignupForm) Payload() map[string]any {
	p := map[string]any{
		"widget_id":     s.cfg.ID,
		"app_detail_id": s.cfg.AppDetailID,
		"student_type":  s.studentType,
		"first_name":    s.values["first_name"],
		"last_name":     s.values["last_name"],
		"email":         s.values["email"],
		"phone":         s.values["phone"],
	}
	if s.studentType == "child" {
		p["parent_first_name"] = s.values["parent_first_name"]
		p["parent_last_name"] = s.values["parent_last_name"]
		p["parent_email"] = s.values["parent_email"]
		p["parent_phone"] = s.values["parent_phone"]
	}
	if len(s.custom) > 0 {
		custom := map[string]string{}
		for id, v := range s.custom {
			custom[fmt.Sprintf("%d", id)] = v
		}
		p["custom_fields"] = custom
	}
	return p
}

// Submit validates the final step and posts the payload. On success the
// form transitions to its terminal thank-you state; on failure the values
// are kept and the server's messages are surfaced for retry.
func (s *SignupForm) Submit(ctx context.Context, submitter Submitter) error {
	if s.submitting {
		return ErrSubmitInFlight
	}
	if !s.validateStep() {
		return fmt.Errorf("signup: required fields missing")
	}

	s.submitting = true
	defer func() { s.submitting = false }()

	if err := submitter.Submit(ctx, s.Payload()); err != nil {
		if se, ok := err.(*SubmitError); ok && len(se.Messages) > 0 {
			for k, v := range se.Messages {
				s.errs[k] = v
			}
		} else {
			s.submitErr = err.Error()
		}
		return err
	}

	s.done = true
	s.submitErr = ""
	announce(s.announcer, s.cfg.PublicID, s.Height())
	return nil
}

// Height estimates the rendered pixel height for the resize broadcast.
func (s *SignupForm) Height() int {
	if s.done {
		return 220
	}
	rows := 4 // student or parent contact block
	if s.step == 1 {
		for _, f := range s.cfg.Fields {
			if f.CollectionType == fields.OncePerForm {
				rows++
			}
		}
		if s.cfg.StudentType == models.StudentShowBoth {
			rows++ // adult/child toggle
		}
	}
	return 160 + rows*88
}

func (s *SignupForm) Describe() View {
	v := View{
		Kind:        s.Kind(),
		Title:       s.cfg.WidgetTitle,
		AccentColor: s.cfg.AccentColor,
		Step:        s.step,
		TotalSteps:  s.TotalSteps(),
		Done:        s.done,
	}
	if s.done {
		v.Message = s.cfg.SuccessMessage
	}
	return v
}
