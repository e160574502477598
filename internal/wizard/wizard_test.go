package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/seemicrminc/tutorwidgets/internal/fields"
)

type fakeStore struct {
	widgets map[uint]*WidgetRecord
	getErr  error
	saveErr error

	created []*Payload
	updated []*Payload
}

func (f *fakeStore) GetWidget(_ context.Context, id uint) (*WidgetRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	w, ok := f.widgets[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return w, nil
}

func (f *fakeStore) CreateWidget(_ context.Context, p *Payload) (*SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.created = append(f.created, p)
	return &SaveResult{WidgetID: 42, EmbedCode: "<iframe></iframe>"}, nil
}

func (f *fakeStore) UpdateWidget(_ context.Context, id uint, p *Payload) (*SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.updated = append(f.updated, p)
	return &SaveResult{WidgetID: id, EmbedCode: "<iframe></iframe>"}, nil
}

func TestCreateFlowEmptyFields(t *testing.T) {
	store := &fakeStore{}
	refreshed := 0
	s := NewSession(store, func() { refreshed++ })

	s.Open()
	if s.Step() != StepGeneral || s.Mode() != ModeCreate {
		t.Fatalf("open: step=%v mode=%v", s.Step(), s.Mode())
	}
	if s.Draft().WidgetTitle != "Sign-Up" || s.Draft().AccentColor != "#587087" {
		t.Errorf("unexpected default draft: %+v", s.Draft())
	}

	s.Draft().WidgetTitle = "Fall Sign-Up"
	s.Next()
	s.Next()
	if s.Step() != StepConfirm {
		t.Fatalf("expected confirmation step, got %v", s.Step())
	}

	res, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.WidgetID != 42 || res.EmbedCode == "" {
		t.Errorf("unexpected save result %+v", res)
	}
	if s.IsOpen() {
		t.Error("session should be closed after a successful submit")
	}
	if refreshed != 1 {
		t.Errorf("refresh callback fired %d times, want 1", refreshed)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d widgets, want 1", len(store.created))
	}
	p := store.created[0]
	if p.WidgetType != "signup" {
		t.Errorf("widget_type = %q, want signup", p.WidgetType)
	}
	if p.WidgetTitle != "Fall Sign-Up" {
		t.Errorf("widget_title = %q", p.WidgetTitle)
	}
	if len(p.CustomFields) != 0 {
		t.Errorf("field array = %+v, want empty", p.CustomFields)
	}
	if p.IsActive != 1 {
		t.Errorf("is_active = %d, want 1", p.IsActive)
	}
}

func TestEditFlowRoundTrip(t *testing.T) {
	store := &fakeStore{
		widgets: map[uint]*WidgetRecord{
			7: {
				ID:          7,
				WidgetType:  "signup",
				WidgetTitle: "Existing",
				CustomFields: []fields.Record{
					{FieldName: "Email", FieldType: fields.DefaultFieldType, IsRequired: "1"},
					{FieldName: "Favorite Color", FieldType: fields.TypeText, IsRequired: "0"},
				},
			},
		},
	}
	s := NewSession(store, nil)

	if err := s.OpenWidget(context.Background(), 7); err != nil {
		t.Fatalf("open widget: %v", err)
	}
	d := s.Draft()
	if len(d.Required) != 1 || d.Required[0] != "Email" {
		t.Errorf("required = %v, want [Email]", d.Required)
	}
	if len(d.Optional) != 0 {
		t.Errorf("optional = %v, want empty", d.Optional)
	}
	if len(d.Custom) != 1 || d.Custom[0].FieldName != "Favorite Color" {
		t.Errorf("custom = %+v", d.Custom)
	}

	s.Next()
	s.Next()
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(store.updated) != 1 {
		t.Fatalf("updated %d widgets, want 1", len(store.updated))
	}
	p := store.updated[0]
	if p.WidgetID != 7 {
		t.Errorf("widget_id = %d, want 7", p.WidgetID)
	}
	if p.WidgetType != "" {
		t.Errorf("widget_type must not be sent on update, got %q", p.WidgetType)
	}
	if len(p.CustomFields) != 2 {
		t.Fatalf("payload fields = %+v, want 2", p.CustomFields)
	}
	if p.CustomFields[0].FieldName != "Email" || p.CustomFields[0].IsRequired != 1 {
		t.Errorf("first record = %+v, want required Email default", p.CustomFields[0])
	}
	if p.CustomFields[1].FieldName != "Favorite Color" || p.CustomFields[1].FieldType != fields.TypeText {
		t.Errorf("second record = %+v, want the custom field", p.CustomFields[1])
	}
}

func TestOpenWidgetFetchFailureStaysClosed(t *testing.T) {
	s := NewSession(&fakeStore{getErr: errors.New("boom")}, nil)
	if err := s.OpenWidget(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if s.IsOpen() {
		t.Error("session must stay closed when the fetch fails")
	}
}

func TestNavigation(t *testing.T) {
	s := NewSession(&fakeStore{}, nil)
	s.Open()

	s.Next()
	s.Next()
	s.Next() // already on step 3
	if s.Step() != StepConfirm {
		t.Errorf("step = %v, want confirmation", s.Step())
	}

	s.Back()
	s.Back()
	if s.Step() != StepGeneral {
		t.Errorf("step = %v, want general", s.Step())
	}

	// Back from step 1 cancels.
	s.Back()
	if s.IsOpen() {
		t.Error("back from step 1 should close the session")
	}
}

func TestSubmitOffConfirmStep(t *testing.T) {
	s := NewSession(&fakeStore{}, nil)
	s.Open()
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNotConfirmStep) {
		t.Fatalf("err = %v, want ErrNotConfirmStep", err)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("server down")}
	refreshed := 0
	s := NewSession(store, func() { refreshed++ })

	s.Open()
	s.Draft().WidgetTitle = "Keep Me"
	s.Draft().SelectRequired("Email")
	s.Next()
	s.Next()

	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	if s.Step() != StepConfirm {
		t.Errorf("step = %v, want to stay on confirmation", s.Step())
	}
	if s.Draft().WidgetTitle != "Keep Me" || len(s.Draft().Required) != 1 {
		t.Errorf("draft was not preserved: %+v", s.Draft())
	}
	if refreshed != 0 {
		t.Error("refresh callback must not fire on failure")
	}

	// Retry after the store recovers.
	store.saveErr = nil
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("refresh fired %d times, want 1", refreshed)
	}
}

func TestBooleanCoercion(t *testing.T) {
	s := NewSession(&fakeStore{}, nil)
	s.Open()
	d := s.Draft()
	d.SendPortalLogin = true
	d.RegistrationFeeEnabled = true
	d.ConfirmationEmailEnabled = false

	p := s.BuildPayload()
	if p.SendPortalLogin != 1 || p.EnableRegistrationFee != 1 || p.ConfirmationEmailEnabled != 0 {
		t.Errorf("coercion: %+v", p)
	}
}

func TestManagerSingleSession(t *testing.T) {
	m := NewManager(&fakeStore{}, nil)

	first, err := m.Open(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first.Draft().WidgetTitle = "First"

	second, err := m.Open(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first.IsOpen() {
		t.Error("old session must be closed when a new one opens")
	}
	if m.Get(1) != second {
		t.Error("manager should return the new session")
	}
	if second.Draft().WidgetTitle == "First" {
		t.Error("new session must start from a fresh draft")
	}

	m.Close(1)
	if m.Get(1) != nil {
		t.Error("closed session still returned")
	}
}
