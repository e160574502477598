package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/forms"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"github.com/seemicrminc/tutorwidgets/internal/renderer"
	"gorm.io/gorm"
)

// RenderHandler serves the public widget views the embed snippet loads.
type RenderHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	announcer forms.Announcer
}

func NewRenderHandler(cfg *config.Config, db *gorm.DB, announcer forms.Announcer) *RenderHandler {
	return &RenderHandler{db: db, cfg: cfg, announcer: announcer}
}

type RenderInput struct {
	PublicID string `path:"publicID"`
}

type RenderOutput struct {
	Body struct {
		View   forms.View   `json:"view"`
		Config forms.Config `json:"config"`
		Height int          `json:"height"`
	}
}

// HandleRender resolves the widget and dispatches to its form. Inactive
// and unknown widgets still render: they resolve to the error form rather
// than a bare 404, so the embedding page always gets a frame to size.
func (h *RenderHandler) HandleRender(ctx context.Context, input *RenderInput) (*RenderOutput, error) {
	var widget models.Widget
	err := h.db.Preload("Fields").Where("public_id = ?", input.PublicID).First(&widget).Error

	out := &RenderOutput{}
	if err != nil || !widget.IsActive {
		form := renderer.Render("", nil, renderer.Options{})
		out.Body.View = form.Describe()
		out.Body.Height = form.Height()
		return out, nil
	}

	cfg := configFromModel(&widget)
	opts := renderer.Options{
		Announcer:     h.announcer,
		LoginEndpoint: h.cfg.PublicBaseURL + "/login",
		PortalURL:     h.cfg.PortalRedirectURL,
	}
	if widget.WidgetType == models.WidgetBookAvailability {
		opts.Slots = h.loadSlots(widget.ID)
	}

	form := renderer.Render(widget.WidgetType, &cfg, opts)
	out.Body.View = form.Describe()
	out.Body.Config = cfg
	out.Body.Height = form.Height()
	return out, nil
}

func (h *RenderHandler) loadSlots(widgetID uint) map[string][]forms.Slot {
	today := time.Now().Format(slotDateLayout)
	var rows []models.ScheduleSlot
	if err := h.db.Where("widget_id = ? AND booked = ? AND date >= ?", widgetID, false, today).
		Order("date, s_time").Find(&rows).Error; err != nil {
		return nil
	}
	slots := map[string][]forms.Slot{}
	for _, s := range rows {
		slots[s.Date] = append(slots[s.Date], forms.Slot{
			ID:           s.ID,
			STime:        s.STime,
			EmployeeName: s.EmployeeName,
		})
	}
	return slots
}

// configFromModel builds the form-facing configuration. Only the custom
// fields travel to the form engines; default fields are rendered from the
// widget's own required sets.
func configFromModel(w *models.Widget) forms.Config {
	records := make([]fields.Record, 0, len(w.Fields))
	for _, f := range w.Fields {
		records = append(records, fields.Record{
			ID:             f.ID,
			FieldName:      f.FieldName,
			FieldType:      f.FieldType,
			FieldOptions:   f.FieldOptions,
			HintText:       f.HintText,
			IsRequired:     str01(f.IsRequired),
			CollectionType: f.CollectionType,
			FieldOrder:     f.FieldOrder,
		})
	}
	return forms.Config{
		ID:             w.ID,
		PublicID:       w.PublicID,
		AppDetailID:    w.UserID,
		WidgetTitle:    w.WidgetTitle,
		AccentColor:    w.AccentColor,
		StudentType:    w.StudentType,
		SuccessMessage: w.SuccessMessage,
		Fields:         fields.Load(records).Custom,
	}
}

type EmbedInput struct {
	Slug string `path:"slug"`
}

// HandleEmbed serves the iframe path. A slug that names a widget type is
// a type-shortcut preview; anything else is treated as a public ID.
func (h *RenderHandler) HandleEmbed(ctx context.Context, input *EmbedInput) (*RenderOutput, error) {
	if renderer.ParseType(input.Slug) != renderer.TypeUnknown {
		return h.HandlePreview(ctx, &PreviewInput{WidgetType: input.Slug})
	}
	return h.HandleRender(ctx, &RenderInput{PublicID: input.Slug})
}

type PreviewInput struct {
	WidgetType string `path:"widgetType"`
}

// HandlePreview renders a widget type with the built-in defaults, for the
// builder's live preview pane.
func (h *RenderHandler) HandlePreview(ctx context.Context, input *PreviewInput) (*RenderOutput, error) {
	if renderer.ParseType(input.WidgetType) == renderer.TypeUnknown {
		return nil, huma.Error404NotFound("Unknown widget type: " + input.WidgetType)
	}

	cfg := forms.Config{
		WidgetTitle: "Sign-Up",
		AccentColor: "#587087",
		StudentType: models.StudentShowBoth,
	}
	form := renderer.Render(input.WidgetType, &cfg, renderer.Options{
		LoginEndpoint: h.cfg.PublicBaseURL + "/login",
		PortalURL:     h.cfg.PortalRedirectURL,
	})

	out := &RenderOutput{}
	out.Body.View = form.Describe()
	out.Body.Config = cfg
	out.Body.Height = form.Height()
	return out, nil
}
