package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/wizard"
)

// WizardHandler exposes the builder flow over the API. Sessions live
// server-side, keyed by operator; the client only ever sees the current
// step and draft.
type WizardHandler struct {
	auth    *auth.AuthHandler
	manager *wizard.Manager
}

func NewWizardHandler(authHandler *auth.AuthHandler, manager *wizard.Manager) *WizardHandler {
	return &WizardHandler{auth: authHandler, manager: manager}
}

// WizardState is the client-facing session snapshot.
type WizardState struct {
	Open          bool          `json:"open"`
	Step          int           `json:"step"`
	StepName      string        `json:"step_name"`
	Editing       bool          `json:"editing"`
	WidgetID      uint          `json:"widget_id,omitempty"`
	Draft         *wizard.Draft `json:"draft,omitempty"`
	DefaultFields []string      `json:"default_fields"`
}

func stateOf(s *wizard.Session) WizardState {
	st := WizardState{DefaultFields: fields.DefaultFieldNames}
	if s == nil || !s.IsOpen() {
		return st
	}
	st.Open = true
	st.Step = int(s.Step())
	st.StepName = s.Step().String()
	st.Editing = s.Mode() == wizard.ModeEdit
	st.WidgetID = s.WidgetID()
	st.Draft = s.Draft()
	return st
}

type WizardOpenInput struct {
	auth.AuthInput
	Body struct {
		WidgetID uint `json:"widget_id,omitempty" doc:"Widget to edit; omit to create a new one"`
	}
}

type WizardStateOutput struct {
	Body WizardState
}

func (h *WizardHandler) HandleOpen(ctx context.Context, input *WizardOpenInput) (*WizardStateOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, auth.UserIDKey, userID)
	s, err := h.manager.Open(ctx, userID, input.Body.WidgetID)
	if err != nil {
		return nil, huma.Error404NotFound("Widget not found")
	}
	return &WizardStateOutput{Body: stateOf(s)}, nil
}

type WizardInput struct {
	auth.AuthInput
}

func (h *WizardHandler) HandleState(ctx context.Context, input *WizardInput) (*WizardStateOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	return &WizardStateOutput{Body: stateOf(h.manager.Get(userID))}, nil
}

// session resolves the caller's open session or fails with a 409, since
// every mutation below is meaningless without one.
func (h *WizardHandler) session(ctx context.Context, in *auth.AuthInput) (uint, *wizard.Session, error) {
	userID, err := h.auth.Authorize(ctx, in)
	if err != nil {
		return 0, nil, err
	}
	s := h.manager.Get(userID)
	if s == nil {
		return 0, nil, huma.Error409Conflict("No open wizard session")
	}
	return userID, s, nil
}

type WizardDraftInput struct {
	auth.AuthInput
	Body wizard.Draft
}

// HandleDraft replaces the working draft with the submitted one. The step
// does not move; drafts are saved as the operator types. The field sets
// are normalized so a client cannot place a name in required and optional
// at once.
func (h *WizardHandler) HandleDraft(ctx context.Context, input *WizardDraftInput) (*WizardStateOutput, error) {
	_, s, err := h.session(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	*s.Draft() = input.Body
	s.Draft().Normalize()
	return &WizardStateOutput{Body: stateOf(s)}, nil
}

type WizardFieldToggleInput struct {
	auth.AuthInput
	Body struct {
		FieldName string `json:"field_name"`
		Set       string `json:"set" enum:"required,optional"`
	}
}

// HandleToggleField toggles a default field in the required or optional
// set. The two sets stay disjoint.
func (h *WizardHandler) HandleToggleField(ctx context.Context, input *WizardFieldToggleInput) (*WizardStateOutput, error) {
	_, s, err := h.session(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !fields.IsDefaultField(input.Body.FieldName) {
		return nil, huma.Error422UnprocessableEntity("Not a default field: " + input.Body.FieldName)
	}

	if input.Body.Set == "required" {
		s.Draft().SelectRequired(input.Body.FieldName)
	} else {
		s.Draft().SelectOptional(input.Body.FieldName)
	}
	return &WizardStateOutput{Body: stateOf(s)}, nil
}

func (h *WizardHandler) HandleNext(ctx context.Context, input *WizardInput) (*WizardStateOutput, error) {
	_, s, err := h.session(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	s.Next()
	return &WizardStateOutput{Body: stateOf(s)}, nil
}

func (h *WizardHandler) HandleBack(ctx context.Context, input *WizardInput) (*WizardStateOutput, error) {
	userID, s, err := h.session(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	s.Back()
	if !s.IsOpen() {
		h.manager.Release(userID)
	}
	return &WizardStateOutput{Body: stateOf(s)}, nil
}

type WizardSubmitOutput struct {
	Body wizard.SaveResult
}

func (h *WizardHandler) HandleSubmit(ctx context.Context, input *WizardInput) (*WizardSubmitOutput, error) {
	userID, s, err := h.session(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, auth.UserIDKey, userID)
	res, err := s.Submit(ctx)
	if errors.Is(err, wizard.ErrNotConfirmStep) {
		return nil, huma.Error409Conflict(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save widget: " + err.Error())
	}

	h.manager.Release(userID)
	return &WizardSubmitOutput{Body: *res}, nil
}

func (h *WizardHandler) HandleClose(ctx context.Context, input *WizardInput) (*WizardStateOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}
	h.manager.Close(userID)
	return &WizardStateOutput{Body: stateOf(nil)}, nil
}
