package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"github.com/seemicrminc/tutorwidgets/internal/wizard"
	"gorm.io/gorm"
)

type WidgetHandler struct {
	db   *gorm.DB
	cfg  *config.Config
	auth *auth.AuthHandler
}

func NewWidgetHandler(cfg *config.Config, db *gorm.DB, authHandler *auth.AuthHandler) *WidgetHandler {
	return &WidgetHandler{db: db, cfg: cfg, auth: authHandler}
}

var ErrNotFound = errors.New("widget not found")

// userFromContext reads the operator behind the request. The wizard store
// methods receive it through the context because the wizard itself is
// user-agnostic.
func userFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	return userID, ok
}

// GetWidget implements the wizard store read. Flags and the fee amount go
// out as strings and requiredness as "1"/"0", matching the builder's wire
// format.
func (h *WidgetHandler) GetWidget(ctx context.Context, id uint) (*wizard.WidgetRecord, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, errors.New("no user in context")
	}

	var widget models.Widget
	err := h.db.Preload("Fields").Where("user_id = ?", userID).First(&widget, id).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return recordFromModel(&widget), nil
}

// CreateWidget implements the wizard store create: it persists the widget
// with a fresh public ID and returns the generated embed code.
func (h *WidgetHandler) CreateWidget(ctx context.Context, p *wizard.Payload) (*wizard.SaveResult, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, errors.New("no user in context")
	}

	widget := models.Widget{
		PublicID: uuid.NewString(),
		UserID:   userID,
	}
	applyPayload(&widget, p)
	widget.EmbedCode = h.embedCode(widget.PublicID)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&widget).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}

	return &wizard.SaveResult{
		WidgetID:  widget.ID,
		EmbedCode: widget.EmbedCode,
		Message:   "Widget created successfully",
	}, nil
}

// UpdateWidget implements the wizard store update: scalar settings are
// overwritten and the field list is replaced wholesale.
func (h *WidgetHandler) UpdateWidget(ctx context.Context, id uint, p *wizard.Payload) (*wizard.SaveResult, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, errors.New("no user in context")
	}

	var widget models.Widget
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&widget, id).Error; err != nil {
			return ErrNotFound
		}
		applyPayload(&widget, p)

		if err := tx.Where("widget_id = ?", widget.ID).Delete(&models.WidgetField{}).Error; err != nil {
			return err
		}
		return tx.Save(&widget).Error
	})
	if err != nil {
		return nil, err
	}

	return &wizard.SaveResult{
		WidgetID:  widget.ID,
		EmbedCode: widget.EmbedCode,
		Message:   "Widget updated successfully",
	}, nil
}

// embedCode is the iframe snippet operators paste into their sites.
func (h *WidgetHandler) embedCode(publicID string) string {
	base := h.cfg.PublicBaseURL
	return fmt.Sprintf(
		`<iframe src="%s/widget/%s" style="width:100%%;border:none;" scrolling="no"></iframe>`+
			"\n"+`<script src="%s/static/resize.js" data-widget-id="%s"></script>`,
		base, publicID, base, publicID,
	)
}

func applyPayload(w *models.Widget, p *wizard.Payload) {
	if p.WidgetType != "" {
		w.WidgetType = p.WidgetType
	}
	w.WidgetTitle = p.WidgetTitle
	w.AccentColor = p.AccentColor
	w.StudentType = p.StudentType
	w.DefaultStatus = p.DefaultStatus
	w.SendPortalLogin = p.SendPortalLogin == 1
	w.GroupTag = p.GroupTag
	w.EnableOnlinePayment = p.EnableOnlinePayment == 1
	w.EnableRegistrationFee = p.EnableRegistrationFee == 1
	w.RegistrationFeeAmount = p.RegistrationFeeAmount
	w.RegistrationFeeCategory = p.RegistrationFeeCategory
	w.RegistrationFeeDescription = p.RegistrationFeeDescription
	w.SuccessMessage = p.SuccessMessage
	w.ConfirmationEmailEnabled = p.ConfirmationEmailEnabled == 1
	w.ConfirmationEmailSubject = p.ConfirmationEmailSubject
	w.ConfirmationEmailBody = p.ConfirmationEmailBody
	w.ConversionTrackingCode = p.ConversionTrackingCode
	w.IsActive = p.IsActive == 1

	w.Fields = make([]models.WidgetField, 0, len(p.CustomFields))
	for i, f := range p.CustomFields {
		w.Fields = append(w.Fields, models.WidgetField{
			WidgetID:       w.ID,
			FieldName:      f.FieldName,
			FieldType:      f.FieldType,
			FieldOptions:   f.FieldOptions,
			HintText:       f.HintText,
			IsRequired:     f.IsRequired == 1,
			CollectionType: f.CollectionType,
			FieldOrder:     i,
		})
	}
}

func recordFromModel(w *models.Widget) *wizard.WidgetRecord {
	rec := &wizard.WidgetRecord{
		ID:                         w.ID,
		WidgetType:                 w.WidgetType,
		WidgetTitle:                w.WidgetTitle,
		AccentColor:                w.AccentColor,
		StudentType:                w.StudentType,
		DefaultStatus:              w.DefaultStatus,
		SendPortalLogin:            str01(w.SendPortalLogin),
		GroupTag:                   w.GroupTag,
		EnableOnlinePayment:        str01(w.EnableOnlinePayment),
		EnableRegistrationFee:      str01(w.EnableRegistrationFee),
		RegistrationFeeAmount:      strconv.FormatFloat(w.RegistrationFeeAmount, 'f', -1, 64),
		RegistrationFeeCategory:    w.RegistrationFeeCategory,
		RegistrationFeeDescription: w.RegistrationFeeDescription,
		SuccessMessage:             w.SuccessMessage,
		ConfirmationEmailEnabled:   str01(w.ConfirmationEmailEnabled),
		ConfirmationEmailSubject:   w.ConfirmationEmailSubject,
		ConfirmationEmailBody:      w.ConfirmationEmailBody,
		ConversionTrackingCode:     w.ConversionTrackingCode,
		CustomFields:               make([]fields.Record, 0, len(w.Fields)),
	}
	for _, f := range w.Fields {
		rec.CustomFields = append(rec.CustomFields, fields.Record{
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
	return rec
}

func str01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// WidgetSummary is the dashboard list row.
type WidgetSummary struct {
	ID          uint   `json:"id"`
	PublicID    string `json:"public_id"`
	WidgetType  string `json:"widget_type"`
	WidgetTitle string `json:"widget_title"`
	IsActive    bool   `json:"is_active"`
	EmbedCode   string `json:"embed_code"`
}

type ListWidgetsInput struct {
	auth.AuthInput
}

type ListWidgetsOutput struct {
	Body struct {
		Widgets []WidgetSummary `json:"widgets"`
	}
}

func (h *WidgetHandler) HandleListWidgets(ctx context.Context, input *ListWidgetsInput) (*ListWidgetsOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	var widgets []models.Widget
	if err := h.db.Where("user_id = ?", userID).Order("id").Find(&widgets).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list widgets")
	}

	out := &ListWidgetsOutput{}
	out.Body.Widgets = make([]WidgetSummary, 0, len(widgets))
	for _, w := range widgets {
		out.Body.Widgets = append(out.Body.Widgets, WidgetSummary{
			ID:          w.ID,
			PublicID:    w.PublicID,
			WidgetType:  w.WidgetType,
			WidgetTitle: w.WidgetTitle,
			IsActive:    w.IsActive,
			EmbedCode:   w.EmbedCode,
		})
	}
	return out, nil
}

type GetWidgetInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type GetWidgetOutput struct {
	Body wizard.WidgetRecord
}

func (h *WidgetHandler) HandleGetWidget(ctx context.Context, input *GetWidgetInput) (*GetWidgetOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	rec, err := h.GetWidget(context.WithValue(ctx, auth.UserIDKey, userID), input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("Widget not found")
	}
	return &GetWidgetOutput{Body: *rec}, nil
}

type SaveWidgetInput struct {
	auth.AuthInput
	Body wizard.Payload
}

type SaveWidgetOutput struct {
	Body wizard.SaveResult
}

func (h *WidgetHandler) HandleCreateWidget(ctx context.Context, input *SaveWidgetInput) (*SaveWidgetOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	res, err := h.CreateWidget(context.WithValue(ctx, auth.UserIDKey, userID), &input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create widget")
	}
	return &SaveWidgetOutput{Body: *res}, nil
}

type UpdateWidgetInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body wizard.Payload
}

func (h *WidgetHandler) HandleUpdateWidget(ctx context.Context, input *UpdateWidgetInput) (*SaveWidgetOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	res, err := h.UpdateWidget(context.WithValue(ctx, auth.UserIDKey, userID), input.ID, &input.Body)
	if errors.Is(err, ErrNotFound) {
		return nil, huma.Error404NotFound("Widget not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update widget")
	}
	return &SaveWidgetOutput{Body: *res}, nil
}

type DeleteWidgetInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *WidgetHandler) HandleDeleteWidget(ctx context.Context, input *DeleteWidgetInput) (*MessageOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var widget models.Widget
		if err := tx.Where("user_id = ?", userID).First(&widget, input.ID).Error; err != nil {
			return ErrNotFound
		}
		if err := tx.Where("widget_id = ?", widget.ID).Delete(&models.WidgetField{}).Error; err != nil {
			return err
		}
		return tx.Delete(&widget).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, huma.Error404NotFound("Widget not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete widget")
	}

	out := &MessageOutput{}
	out.Body.Message = "Widget deleted"
	return out, nil
}

type ToggleWidgetInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		IsActive bool `json:"is_active"`
	}
}

// HandleToggleWidget flips a widget between active and inactive without
// touching the rest of its configuration.
func (h *WidgetHandler) HandleToggleWidget(ctx context.Context, input *ToggleWidgetInput) (*MessageOutput, error) {
	userID, err := h.auth.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	res := h.db.Model(&models.Widget{}).
		Where("id = ? AND user_id = ?", input.ID, userID).
		Update("is_active", input.Body.IsActive)
	if res.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to update widget")
	}
	if res.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Widget not found")
	}

	out := &MessageOutput{}
	if input.Body.IsActive {
		out.Body.Message = "Widget activated"
	} else {
		out.Body.Message = "Widget deactivated"
	}
	return out, nil
}
