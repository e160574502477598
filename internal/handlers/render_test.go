package handlers

import (
	"context"
	"testing"

	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/models"
)

func testRenderHandler(t *testing.T) (*RenderHandler, *models.Widget) {
	db := testDB(t)
	w := seedWidget(t, db, models.WidgetSignup,
		models.WidgetField{FieldName: "Email", FieldType: "text_single", IsRequired: true, CollectionType: "once_per_form"},
		models.WidgetField{FieldName: "Referral Source", FieldType: "text", IsRequired: true, CollectionType: "once_per_form"},
	)
	cfg := &config.Config{PublicBaseURL: "http://127.0.0.1:8080"}
	return NewRenderHandler(cfg, db, nil), &w
}

func TestRenderKnownWidget(t *testing.T) {
	h, w := testRenderHandler(t)

	out, err := h.HandleRender(context.Background(), &RenderInput{PublicID: w.PublicID})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Body.View.Kind != models.WidgetSignup {
		t.Errorf("kind = %q", out.Body.View.Kind)
	}
	if out.Body.Height <= 0 {
		t.Errorf("height = %d", out.Body.Height)
	}

	// Default fields stay out of the form config; customs travel through
	if len(out.Body.Config.Fields) != 1 || out.Body.Config.Fields[0].FieldName != "Referral Source" {
		t.Errorf("config fields = %+v", out.Body.Config.Fields)
	}
}

func TestRenderUnknownPublicID(t *testing.T) {
	h, _ := testRenderHandler(t)

	out, err := h.HandleRender(context.Background(), &RenderInput{PublicID: "no-such-widget"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Body.View.Kind != "error" {
		t.Errorf("kind = %q, want error form", out.Body.View.Kind)
	}
	if out.Body.View.Message != "Widget configuration is missing" {
		t.Errorf("message = %q", out.Body.View.Message)
	}
}

func TestRenderInactiveWidgetFallsBack(t *testing.T) {
	h, w := testRenderHandler(t)
	h.db.Model(w).Update("is_active", false)

	out, err := h.HandleRender(context.Background(), &RenderInput{PublicID: w.PublicID})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Body.View.Kind != "error" {
		t.Errorf("kind = %q, want error form", out.Body.View.Kind)
	}
}

func TestEmbedSlugDispatch(t *testing.T) {
	h, w := testRenderHandler(t)

	// Type name renders the preview
	out, err := h.HandleEmbed(context.Background(), &EmbedInput{Slug: "signup"})
	if err != nil {
		t.Fatalf("embed preview: %v", err)
	}
	if out.Body.View.Kind != models.WidgetSignup {
		t.Errorf("kind = %q", out.Body.View.Kind)
	}

	// Anything else resolves as a public ID
	out, err = h.HandleEmbed(context.Background(), &EmbedInput{Slug: w.PublicID})
	if err != nil {
		t.Fatalf("embed by id: %v", err)
	}
	if out.Body.Config.PublicID != w.PublicID {
		t.Errorf("config = %+v", out.Body.Config)
	}
}

func TestPreview(t *testing.T) {
	h, _ := testRenderHandler(t)

	out, err := h.HandlePreview(context.Background(), &PreviewInput{WidgetType: "contact"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if out.Body.View.Kind != models.WidgetContact {
		t.Errorf("kind = %q", out.Body.View.Kind)
	}

	if _, err := h.HandlePreview(context.Background(), &PreviewInput{WidgetType: "carousel"}); err == nil {
		t.Fatal("unknown preview type accepted")
	}
}
