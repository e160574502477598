package models

import (
	"gorm.io/gorm"
)

// Widget types.
const (
	WidgetSignup           = "signup"
	WidgetLogin            = "login"
	WidgetContact          = "contact"
	WidgetBookAvailability = "book_availability"
	WidgetBookCalendar     = "book_calendar"
)

// Student type policies.
const (
	StudentAdultOnly = "adult_only"
	StudentChildOnly = "child_only"
	StudentShowBoth  = "show_both"
)

type Widget struct {
	gorm.Model
	PublicID                   string  `json:"public_id" gorm:"uniqueIndex"`
	UserID                     uint    `json:"user_id"`
	User                       User    `json:"-" gorm:"foreignKey:UserID"`
	WidgetType                 string  `json:"widget_type"`
	WidgetTitle                string  `json:"widget_title"`
	AccentColor                string  `json:"accent_color"`
	StudentType                string  `json:"student_type"`
	DefaultStatus              string  `json:"default_status"`
	SendPortalLogin            bool    `json:"send_portal_login"`
	GroupTag                   string  `json:"group_tag"`
	EnableOnlinePayment        bool    `json:"enable_online_payment"`
	EnableRegistrationFee      bool    `json:"enable_registration_fee"`
	RegistrationFeeAmount      float64 `json:"registration_fee_amount"`
	RegistrationFeeCategory    string  `json:"registration_fee_category"`
	RegistrationFeeDescription string  `json:"registration_fee_description"`
	SuccessMessage             string  `json:"success_message"`
	ConfirmationEmailEnabled   bool    `json:"confirmation_email_enabled"`
	ConfirmationEmailSubject   string  `json:"confirmation_email_subject"`
	ConfirmationEmailBody      string  `json:"confirmation_email_body"`
	ConversionTrackingCode     string  `json:"conversion_tracking_code"`
	EmbedCode                  string  `json:"embed_code"`
	IsActive                   bool    `json:"is_active"`

	Fields []WidgetField `json:"custom_fields" gorm:"constraint:OnDelete:CASCADE"`
}

// WidgetField is one field definition attached to a widget. Default and
// custom fields share this table; the field name decides the provenance.
type WidgetField struct {
	gorm.Model
	WidgetID       uint     `json:"widget_id"`
	FieldName      string   `json:"field_name"`
	FieldType      string   `json:"field_type"`
	FieldOptions   []string `json:"field_options" gorm:"serializer:json"`
	HintText       string   `json:"hint_text"`
	IsRequired     bool     `json:"is_required"`
	CollectionType string   `json:"collection_type"`
	FieldOrder     int      `json:"field_order"`
}
