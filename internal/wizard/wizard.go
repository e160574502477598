// Package wizard implements the 3-step widget builder flow: General
// Settings, Extra Fields, Confirmation. A session holds the transient
// draft between open and submit; the durable record stays with the Store.
package wizard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/seemicrminc/tutorwidgets/internal/fields"
)

type Step int

const (
	StepClosed Step = iota
	StepGeneral
	StepFields
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepGeneral:
		return "General Settings"
	case StepFields:
		return "Extra Fields"
	case StepConfirm:
		return "Confirmation"
	}
	return "Closed"
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// WidgetRecord is the widget shape the store returns for editing. Flags
// and the fee amount arrive as strings, matching the wire format.
type WidgetRecord struct {
	ID                         uint            `json:"id"`
	WidgetType                 string          `json:"widget_type"`
	WidgetTitle                string          `json:"widget_title"`
	AccentColor                string          `json:"accent_color"`
	StudentType                string          `json:"student_type"`
	DefaultStatus              string          `json:"default_status"`
	SendPortalLogin            string          `json:"send_portal_login"`
	GroupTag                   string          `json:"group_tag"`
	EnableOnlinePayment        string          `json:"enable_online_payment"`
	EnableRegistrationFee      string          `json:"enable_registration_fee"`
	RegistrationFeeAmount      string          `json:"registration_fee_amount"`
	RegistrationFeeCategory    string          `json:"registration_fee_category"`
	RegistrationFeeDescription string          `json:"registration_fee_description"`
	SuccessMessage             string          `json:"success_message"`
	ConfirmationEmailEnabled   string          `json:"confirmation_email_enabled"`
	ConfirmationEmailSubject   string          `json:"confirmation_email_subject"`
	ConfirmationEmailBody      string          `json:"confirmation_email_body"`
	ConversionTrackingCode     string          `json:"conversion_tracking_code"`
	CustomFields               []fields.Record `json:"custom_fields"`
}

// Payload is the flattened create/update request body. Boolean settings
// are coerced to 1/0 integers.
type Payload struct {
	WidgetID                   uint                  `json:"widget_id,omitempty"`
	WidgetType                 string                `json:"widget_type,omitempty"`
	WidgetTitle                string                `json:"widget_title"`
	AccentColor                string                `json:"accent_color"`
	StudentType                string                `json:"student_type"`
	DefaultStatus              string                `json:"default_status"`
	SendPortalLogin            int                   `json:"send_portal_login"`
	GroupTag                   string                `json:"group_tag"`
	EnableOnlinePayment        int                   `json:"enable_online_payment"`
	EnableRegistrationFee      int                   `json:"enable_registration_fee"`
	RegistrationFeeAmount      float64               `json:"registration_fee_amount"`
	RegistrationFeeCategory    string                `json:"registration_fee_category"`
	RegistrationFeeDescription string                `json:"registration_fee_description"`
	SuccessMessage             string                `json:"success_message"`
	ConfirmationEmailEnabled   int                   `json:"confirmation_email_enabled"`
	ConfirmationEmailSubject   string                `json:"confirmation_email_subject"`
	ConfirmationEmailBody      string                `json:"confirmation_email_body"`
	ConversionTrackingCode     string                `json:"conversion_tracking_code"`
	CustomFields               []fields.PayloadField `json:"custom_fields"`
	IsActive                   int                   `json:"is_active"`
}

// SaveResult is returned by the store after a successful create or update.
type SaveResult struct {
	WidgetID  uint   `json:"widget_id"`
	EmbedCode string `json:"embed_code"`
	Message   string `json:"message"`
}

// Store is the widget service the wizard works against.
type Store interface {
	GetWidget(ctx context.Context, id uint) (*WidgetRecord, error)
	CreateWidget(ctx context.Context, p *Payload) (*SaveResult, error)
	UpdateWidget(ctx context.Context, id uint, p *Payload) (*SaveResult, error)
}

// Draft is the builder's working copy of a widget: scalar settings plus
// the three-part field partition. It exists only while a session is open.
type Draft struct {
	WidgetType                 string  `json:"widget_type"`
	WidgetTitle                string  `json:"widget_title"`
	AccentColor                string  `json:"accent_color"`
	StudentType                string  `json:"student_type"`
	DefaultStatus              string  `json:"default_status"`
	SendPortalLogin            bool    `json:"send_portal_login"`
	GroupTag                   string  `json:"group_tag"`
	OnlinePaymentsEnabled      bool    `json:"online_payments_enabled"`
	RegistrationFeeEnabled     bool    `json:"registration_fee_enabled"`
	RegistrationFeeAmount      float64 `json:"registration_fee_amount"`
	RegistrationFeeCategory    string  `json:"registration_fee_category"`
	RegistrationFeeDescription string  `json:"registration_fee_description"`
	SuccessMessage             string  `json:"success_message"`
	ConfirmationEmailEnabled   bool    `json:"confirmation_email_enabled"`
	ConfirmationEmailSubject   string  `json:"confirmation_email_subject"`
	ConfirmationEmailBody      string  `json:"confirmation_email_body"`
	ConversionTrackingCode     string  `json:"conversion_tracking_code"`

	fields.Draft
}

// DefaultDraft returns the built-in defaults a freshly opened create
// session starts from.
func DefaultDraft() Draft {
	return Draft{
		WidgetType:                 "signup",
		WidgetTitle:                "Sign-Up",
		AccentColor:                "#587087",
		StudentType:                "show_both",
		DefaultStatus:              "Active",
		RegistrationFeeDescription: "Registration fee, sign-up fee, etc.",
		SuccessMessage:             "Thank you for signing up!\n\nWe will contact you as soon as possible.",
		ConfirmationEmailSubject:   "Sign-Up Confirmation",
		ConfirmationEmailBody:      "Dear %FirstName%,\n\nThank you for your interest in tutoring. We will contact you within one business day.\n\nSincerely,\n%TutorFirstName%\n%BusinessName%",
		Draft: fields.Draft{
			Required: []string{},
			Optional: []string{},
			Custom:   []fields.CustomField{},
		},
	}
}

// Session is one open wizard. Zero value is closed.
type Session struct {
	store    Store
	onSaved  func()
	step     Step
	mode     Mode
	widgetID uint
	draft    Draft
}

// NewSession returns a closed session bound to a store. onSaved is invoked
// exactly once after each successful submit, so the owner can refresh its
// widget list; it may be nil.
func NewSession(store Store, onSaved func()) *Session {
	return &Session{store: store, onSaved: onSaved}
}

// Open starts a create-mode session at step 1 with the default draft.
func (s *Session) Open() {
	s.step = StepGeneral
	s.mode = ModeCreate
	s.widgetID = 0
	s.draft = DefaultDraft()
}

// OpenWidget fetches the widget and starts an edit-mode session at step 1.
// On fetch failure the session stays closed and the error is returned.
func (s *Session) OpenWidget(ctx context.Context, id uint) error {
	rec, err := s.store.GetWidget(ctx, id)
	if err != nil {
		return fmt.Errorf("load widget %d: %w", id, err)
	}
	s.draft = draftFromRecord(rec)
	s.step = StepGeneral
	s.mode = ModeEdit
	s.widgetID = id
	return nil
}

func draftFromRecord(rec *WidgetRecord) Draft {
	amount, _ := strconv.ParseFloat(rec.RegistrationFeeAmount, 64)
	d := Draft{
		WidgetType:                 rec.WidgetType,
		WidgetTitle:                rec.WidgetTitle,
		AccentColor:                rec.AccentColor,
		StudentType:                rec.StudentType,
		DefaultStatus:              rec.DefaultStatus,
		SendPortalLogin:            rec.SendPortalLogin == "1",
		GroupTag:                   rec.GroupTag,
		OnlinePaymentsEnabled:      rec.EnableOnlinePayment == "1",
		RegistrationFeeEnabled:     rec.EnableRegistrationFee == "1",
		RegistrationFeeAmount:      amount,
		RegistrationFeeCategory:    rec.RegistrationFeeCategory,
		RegistrationFeeDescription: rec.RegistrationFeeDescription,
		SuccessMessage:             rec.SuccessMessage,
		ConfirmationEmailEnabled:   rec.ConfirmationEmailEnabled == "1",
		ConfirmationEmailSubject:   rec.ConfirmationEmailSubject,
		ConfirmationEmailBody:      rec.ConfirmationEmailBody,
		ConversionTrackingCode:     rec.ConversionTrackingCode,
		Draft:                      fields.Load(rec.CustomFields),
	}
	return d
}

func (s *Session) Step() Step     { return s.step }
func (s *Session) Mode() Mode     { return s.mode }
func (s *Session) WidgetID() uint { return s.widgetID }
func (s *Session) IsOpen() bool   { return s.step != StepClosed }

// Draft exposes the working copy for mutation while the session is open.
func (s *Session) Draft() *Draft { return &s.draft }

// Next advances one step. There is no required-field gate on the builder
// steps; only the embeddable forms gate advancement.
func (s *Session) Next() {
	if s.step >= StepGeneral && s.step < StepConfirm {
		s.step++
	}
}

// Back moves one step back. From step 1 it cancels the session.
func (s *Session) Back() {
	switch {
	case s.step == StepGeneral:
		s.Close()
	case s.step > StepGeneral:
		s.step--
	}
}

// Close discards the draft unconditionally.
func (s *Session) Close() {
	s.step = StepClosed
	s.mode = ModeCreate
	s.widgetID = 0
	s.draft = Draft{}
}

// ErrNotConfirmStep is returned when Submit is called off step 3.
var ErrNotConfirmStep = fmt.Errorf("wizard: submit is only valid on the confirmation step")

// Submit flattens the draft and saves it through the store. On success the
// session closes, the draft is discarded and the refresh callback fires.
// On failure the session stays on step 3 with the draft intact.
func (s *Session) Submit(ctx context.Context) (*SaveResult, error) {
	if s.step != StepConfirm {
		return nil, ErrNotConfirmStep
	}

	payload := s.BuildPayload()

	var (
		res *SaveResult
		err error
	)
	if s.mode == ModeEdit {
		res, err = s.store.UpdateWidget(ctx, s.widgetID, payload)
	} else {
		res, err = s.store.CreateWidget(ctx, payload)
	}
	if err != nil {
		return nil, err
	}

	s.Close()
	if s.onSaved != nil {
		s.onSaved()
	}
	return res, nil
}

// BuildPayload flattens the current draft into the wire shape: required
// defaults, optional defaults, then valid custom fields, with boolean
// settings coerced to 1/0.
func (s *Session) BuildPayload() *Payload {
	d := &s.draft
	p := &Payload{
		WidgetTitle:                d.WidgetTitle,
		AccentColor:                d.AccentColor,
		StudentType:                d.StudentType,
		DefaultStatus:              d.DefaultStatus,
		SendPortalLogin:            bool01(d.SendPortalLogin),
		GroupTag:                   d.GroupTag,
		EnableOnlinePayment:        bool01(d.OnlinePaymentsEnabled),
		EnableRegistrationFee:      bool01(d.RegistrationFeeEnabled),
		RegistrationFeeAmount:      d.RegistrationFeeAmount,
		RegistrationFeeCategory:    d.RegistrationFeeCategory,
		RegistrationFeeDescription: d.RegistrationFeeDescription,
		SuccessMessage:             d.SuccessMessage,
		ConfirmationEmailEnabled:   bool01(d.ConfirmationEmailEnabled),
		ConfirmationEmailSubject:   d.ConfirmationEmailSubject,
		ConfirmationEmailBody:      d.ConfirmationEmailBody,
		ConversionTrackingCode:     d.ConversionTrackingCode,
		CustomFields:               fields.BuildPayload(d.Draft),
		IsActive:                   1,
	}
	if s.mode == ModeEdit {
		p.WidgetID = s.widgetID
	} else {
		p.WidgetType = d.WidgetType
	}
	return p
}

func bool01(b bool) int {
	if b {
		return 1
	}
	return 0
}
