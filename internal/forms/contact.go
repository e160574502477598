package forms

import (
	"context"
	"fmt"

	"github.com/seemicrminc/tutorwidgets/internal/models"
)

// ContactForm is the single-step contact flow. Phone is the only optional
// field.
type ContactForm struct {
	cfg       Config
	announcer Announcer

	values     map[string]string
	errs       map[string]string
	submitting bool
	done       bool
	submitErr  string
}

func NewContact(cfg Config, a Announcer) *ContactForm {
	return &ContactForm{
		cfg:       cfg,
		announcer: a,
		values:    map[string]string{},
		errs:      map[string]string{},
	}
}

func (c *ContactForm) Kind() string              { return models.WidgetContact }
func (c *ContactForm) Done() bool                { return c.done }
func (c *ContactForm) Errors() map[string]string { return c.errs }
func (c *ContactForm) SubmitError() string       { return c.submitErr }

func (c *ContactForm) SetValue(name, v string) {
	c.values[name] = v
	delete(c.errs, name)
}

func (c *ContactForm) validate() bool {
	errs := map[string]string{}
	if c.values["first_name"] == "" {
		errs["first_name"] = "First name is required"
	}
	if c.values["last_name"] == "" {
		errs["last_name"] = "Last name is required"
	}
	switch {
	case c.values["email"] == "":
		errs["email"] = "Email is required"
	case !ValidEmail(c.values["email"]):
		errs["email"] = "Enter a valid email address"
	}
	if c.values["message"] == "" {
		errs["message"] = "Message is required"
	}
	c.errs = errs
	return len(errs) == 0
}

func (c *ContactForm) Payload() map[string]any {
	return map[string]any{
		"widget_id":     c.cfg.ID,
		"app_detail_id": c.cfg.AppDetailID,
		"first_name":    c.values["first_name"],
		"last_name":     c.values["last_name"],
		"email":         c.values["email"],
		"phone":         c.values["phone"],
		"message":       c.values["message"],
	}
}

func (c *ContactForm) Submit(ctx context.Context, submitter Submitter) error {
	if c.submitting {
		return ErrSubmitInFlight
	}
	if !c.validate() {
		return fmt.Errorf("contact: required fields missing")
	}

	c.submitting = true
	defer func() { c.submitting = false }()

	if err := submitter.Submit(ctx, c.Payload()); err != nil {
		if se, ok := err.(*SubmitError); ok && len(se.Messages) > 0 {
			for k, v := range se.Messages {
				c.errs[k] = v
			}
		} else {
			c.submitErr = err.Error()
		}
		return err
	}

	c.done = true
	c.submitErr = ""
	announce(c.announcer, c.cfg.PublicID, c.Height())
	return nil
}

func (c *ContactForm) Height() int {
	if c.done {
		return 220
	}
	return 160 + 5*88
}

func (c *ContactForm) Describe() View {
	v := View{
		Kind:        c.Kind(),
		Title:       c.cfg.WidgetTitle,
		AccentColor: c.cfg.AccentColor,
		Step:        1,
		TotalSteps:  1,
		Done:        c.done,
	}
	if c.done {
		v.Message = c.cfg.SuccessMessage
	}
	return v
}
