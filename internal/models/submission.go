package models

import (
	"gorm.io/gorm"
)

// Submission is one accepted form submission against a widget. Values holds
// the posted body keyed by field name, as received.
type Submission struct {
	gorm.Model
	WidgetID    uint              `json:"widget_id"`
	Widget      Widget            `json:"-" gorm:"foreignKey:WidgetID"`
	StudentType string            `json:"student_type"`
	ScheduleID  uint              `json:"schedule_id"`
	Values      map[string]string `json:"values" gorm:"serializer:json"`
}

// ScheduleSlot is a bookable time slot offered through a booking widget.
// Date uses the 2006-01-02 layout so it can key the availability map.
type ScheduleSlot struct {
	gorm.Model
	WidgetID     uint   `json:"widget_id"`
	Date         string `json:"date" gorm:"index"`
	STime        string `json:"stime"`
	EmployeeName string `json:"employee_name"`
	Booked       bool   `json:"booked"`
}
