package handlers

import (
	"context"
	"testing"

	authpkg "github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"github.com/seemicrminc/tutorwidgets/internal/wizard"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.LoginEvent{}, &models.APIKey{},
		&models.Widget{}, &models.WidgetField{},
		&models.Submission{}, &models.ScheduleSlot{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testWidgetHandler(t *testing.T, db *gorm.DB) *WidgetHandler {
	cfg := &config.Config{JWTSecret: "test-secret", PublicBaseURL: "http://127.0.0.1:8080"}
	return NewWidgetHandler(cfg, db, authpkg.NewAuthHandler(cfg, db))
}

func userCtx(userID uint) context.Context {
	return context.WithValue(context.Background(), authpkg.UserIDKey, userID)
}

func signupPayload() *wizard.Payload {
	return &wizard.Payload{
		WidgetType:  "signup",
		WidgetTitle: "Sign-Up",
		AccentColor: "#587087",
		StudentType: "show_both",
		CustomFields: []fields.PayloadField{
			{FieldName: "Email", FieldType: "text_single", IsRequired: 1, CollectionType: "once_per_form"},
			{FieldName: "Phone", FieldType: "text_single", IsRequired: 0, CollectionType: "once_per_form"},
			{FieldName: "Favorite Color", FieldType: "dropdown", IsRequired: 1, CollectionType: "once_per_form", FieldOptions: []string{"Red", "Blue"}},
		},
		IsActive: 1,
	}
}

func TestWidgetStoreRoundTrip(t *testing.T) {
	db := testDB(t)
	h := testWidgetHandler(t, db)
	ctx := userCtx(1)

	res, err := h.CreateWidget(ctx, signupPayload())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.WidgetID == 0 {
		t.Fatal("no widget id returned")
	}
	if res.EmbedCode == "" {
		t.Error("no embed code generated")
	}

	rec, err := h.GetWidget(ctx, res.WidgetID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.WidgetType != "signup" || rec.WidgetTitle != "Sign-Up" {
		t.Errorf("record = %+v", rec)
	}

	// Flags and requiredness come back as strings
	if rec.SendPortalLogin != "0" {
		t.Errorf("send_portal_login = %q, want \"0\"", rec.SendPortalLogin)
	}
	if len(rec.CustomFields) != 3 {
		t.Fatalf("fields = %d, want 3", len(rec.CustomFields))
	}
	if rec.CustomFields[0].FieldName != "Email" || rec.CustomFields[0].IsRequired != "1" {
		t.Errorf("field[0] = %+v", rec.CustomFields[0])
	}
	if rec.CustomFields[1].IsRequired != "0" {
		t.Errorf("field[1] = %+v", rec.CustomFields[1])
	}
	if got := rec.CustomFields[2].FieldOptions; len(got) != 2 || got[0] != "Red" {
		t.Errorf("field[2] options = %v", got)
	}

	// The draft partition classifies defaults vs customs
	d := fields.Load(rec.CustomFields)
	if len(d.Required) != 1 || d.Required[0] != "Email" {
		t.Errorf("required = %v", d.Required)
	}
	if len(d.Optional) != 1 || d.Optional[0] != "Phone" {
		t.Errorf("optional = %v", d.Optional)
	}
	if len(d.Custom) != 1 || d.Custom[0].FieldName != "Favorite Color" {
		t.Errorf("custom = %v", d.Custom)
	}
}

func TestWidgetUpdateReplacesFields(t *testing.T) {
	db := testDB(t)
	h := testWidgetHandler(t, db)
	ctx := userCtx(1)

	res, err := h.CreateWidget(ctx, signupPayload())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	update := &wizard.Payload{
		WidgetID:    res.WidgetID,
		WidgetTitle: "Fall Enrollment",
		AccentColor: "#224466",
		StudentType: "adult_only",
		CustomFields: []fields.PayloadField{
			{FieldName: "School", FieldType: "text_single", IsRequired: 1, CollectionType: "once_per_form"},
		},
		IsActive: 1,
	}
	if _, err := h.UpdateWidget(ctx, res.WidgetID, update); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, err := h.GetWidget(ctx, res.WidgetID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.WidgetTitle != "Fall Enrollment" {
		t.Errorf("title = %q", rec.WidgetTitle)
	}
	// Update never changes the type
	if rec.WidgetType != "signup" {
		t.Errorf("widget_type = %q, want signup", rec.WidgetType)
	}
	if len(rec.CustomFields) != 1 || rec.CustomFields[0].FieldName != "School" {
		t.Errorf("fields not replaced: %+v", rec.CustomFields)
	}
}

func TestWidgetScopedToOwner(t *testing.T) {
	db := testDB(t)
	h := testWidgetHandler(t, db)

	res, err := h.CreateWidget(userCtx(1), signupPayload())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := h.GetWidget(userCtx(2), res.WidgetID); err == nil {
		t.Error("another operator read the widget")
	}
	if _, err := h.UpdateWidget(userCtx(2), res.WidgetID, signupPayload()); err == nil {
		t.Error("another operator updated the widget")
	}
}

func TestWizardEndToEndThroughStore(t *testing.T) {
	db := testDB(t)
	h := testWidgetHandler(t, db)
	ctx := userCtx(1)

	refreshed := 0
	manager := wizard.NewManager(h, func(userID uint) { refreshed++ })

	s, err := manager.Open(ctx, 1, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Draft().WidgetTitle = "New Students"
	s.Draft().SelectRequired("Email")
	s.Next()
	s.Next()

	res, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("refresh fired %d times, want 1", refreshed)
	}

	rec, err := h.GetWidget(ctx, res.WidgetID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.WidgetTitle != "New Students" {
		t.Errorf("title = %q", rec.WidgetTitle)
	}
	if len(rec.CustomFields) != 1 || rec.CustomFields[0].FieldName != "Email" || rec.CustomFields[0].IsRequired != "1" {
		t.Errorf("fields = %+v", rec.CustomFields)
	}

	// Edit the saved widget through a fresh session
	s2, err := manager.Open(ctx, 1, res.WidgetID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := s2.Draft().Required; len(got) != 1 || got[0] != "Email" {
		t.Errorf("required after reload = %v", got)
	}
}
