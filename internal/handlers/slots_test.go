package handlers

import (
	"context"
	"testing"
	"time"

	authpkg "github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/models"
)

func TestAvailableSlotsFiltering(t *testing.T) {
	db := testDB(t)
	h := NewScheduleHandler(db, nil)
	h.now = func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) }

	w := seedWidget(t, db, models.WidgetBookAvailability)
	db.Create(&models.ScheduleSlot{WidgetID: w.ID, Date: "2026-03-05", STime: "2:00 PM", EmployeeName: "Sam"})
	db.Create(&models.ScheduleSlot{WidgetID: w.ID, Date: "2026-03-12", STime: "2:00 PM", EmployeeName: "Sam"})
	db.Create(&models.ScheduleSlot{WidgetID: w.ID, Date: "2026-03-12", STime: "3:00 PM", EmployeeName: "Lee", Booked: true})
	db.Create(&models.ScheduleSlot{WidgetID: w.ID + 1, Date: "2026-03-12", STime: "4:00 PM", EmployeeName: "Kim"})

	out, err := h.HandleAvailableSlots(context.Background(), &AvailableSlotsInput{PublicID: w.PublicID})
	if err != nil {
		t.Fatalf("slots: %v", err)
	}

	if len(out.Body.Slots) != 1 {
		t.Fatalf("dates = %v", out.Body.Slots)
	}
	day := out.Body.Slots["2026-03-12"]
	if len(day) != 1 || day[0].STime != "2:00 PM" || day[0].EmployeeName != "Sam" {
		t.Errorf("slots for 2026-03-12 = %+v", day)
	}
}

func TestCreateSlots(t *testing.T) {
	db := testDB(t)
	cfg := &config.Config{JWTSecret: "test-secret"}
	authHandler := authpkg.NewAuthHandler(cfg, db)
	h := NewScheduleHandler(db, authHandler)

	w := seedWidget(t, db, models.WidgetBookAvailability)
	token, _ := authHandler.GenerateToken(w.UserID)

	in := &CreateSlotsInput{AuthInput: authpkg.AuthInput{Cookie: "auth_token=" + token}, ID: w.ID}
	in.Body.Slots = []SlotInput{
		{Date: "2026-09-01", STime: "10:00 AM", EmployeeName: "Sam"},
		{Date: "2026-09-01", STime: "11:00 AM", EmployeeName: "Sam"},
	}

	out, err := h.HandleCreateSlots(context.Background(), in)
	if err != nil {
		t.Fatalf("create slots: %v", err)
	}
	if out.Body.Created != 2 {
		t.Errorf("created = %d", out.Body.Created)
	}

	var count int64
	db.Model(&models.ScheduleSlot{}).Where("widget_id = ?", w.ID).Count(&count)
	if count != 2 {
		t.Errorf("stored = %d", count)
	}

	t.Run("BadDate", func(t *testing.T) {
		bad := &CreateSlotsInput{AuthInput: authpkg.AuthInput{Cookie: "auth_token=" + token}, ID: w.ID}
		bad.Body.Slots = []SlotInput{
			{Date: "September 1st", STime: "10:00 AM"},
		}
		if _, err := h.HandleCreateSlots(context.Background(), bad); err == nil {
			t.Fatal("invalid date accepted")
		}
	})
}
