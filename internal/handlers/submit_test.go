package handlers

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/seemicrminc/tutorwidgets/internal/fields"
	"github.com/seemicrminc/tutorwidgets/internal/forms"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	notified []models.Submission
}

func (r *recordingNotifier) NotifySubmission(_ models.Widget, s models.Submission) error {
	r.notified = append(r.notified, s)
	return nil
}

func seedWidget(t *testing.T, db *gorm.DB, widgetType string, fields ...models.WidgetField) models.Widget {
	t.Helper()
	w := models.Widget{
		PublicID:       "w-" + widgetType,
		UserID:         1,
		WidgetType:     widgetType,
		WidgetTitle:    "Test",
		StudentType:    models.StudentShowBoth,
		SuccessMessage: "Thanks!",
		IsActive:       true,
		Fields:         fields,
	}
	if err := db.Create(&w).Error; err != nil {
		t.Fatalf("seed widget: %v", err)
	}
	return w
}

func submitBody(values map[string]string) *SubmitInput {
	in := &SubmitInput{Body: map[string]any{}}
	for k, v := range values {
		in.Body[k] = v
	}
	return in
}

func TestSubmitValidation(t *testing.T) {
	db := testDB(t)
	h := NewSubmitHandler(db, nil)
	w := seedWidget(t, db, models.WidgetSignup,
		models.WidgetField{FieldName: "Referral Source", FieldType: "text", IsRequired: true, CollectionType: "once_per_form"},
	)

	t.Run("MissingRequired", func(t *testing.T) {
		in := submitBody(map[string]string{"first_name": "Ada"})
		in.PublicID = w.PublicID
		_, err := h.HandleSubmit(context.Background(), in)
		if err == nil {
			t.Fatal("expected validation error")
		}

		var count int64
		db.Model(&models.Submission{}).Count(&count)
		if count != 0 {
			t.Errorf("submission stored despite validation failure")
		}
	})

	t.Run("BadEmail", func(t *testing.T) {
		in := submitBody(map[string]string{
			"first_name":      "Ada",
			"last_name":       "Lovelace",
			"email":           "not-an-email",
			"Referral Source": "Friend",
		})
		in.PublicID = w.PublicID
		if _, err := h.HandleSubmit(context.Background(), in); err == nil {
			t.Fatal("malformed email accepted")
		}
	})

	t.Run("ChildNeedsParentFields", func(t *testing.T) {
		in := submitBody(map[string]string{
			"first_name":      "Ada",
			"last_name":       "Lovelace",
			"email":           "ada@example.com",
			"Referral Source": "Friend",
		})
		in.PublicID = w.PublicID
		in.Body["student_type"] = "child"
		if _, err := h.HandleSubmit(context.Background(), in); err == nil {
			t.Fatal("child submission accepted without parent fields")
		}
	})
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	db := testDB(t)
	n := &recordingNotifier{}
	h := NewSubmitHandler(db, n)
	w := seedWidget(t, db, models.WidgetSignup)

	in := submitBody(map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	in.PublicID = w.PublicID

	out, err := h.HandleSubmit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Body.Message != "Thanks!" {
		t.Errorf("message = %q", out.Body.Message)
	}

	var stored models.Submission
	if err := db.First(&stored, out.Body.SubmissionID).Error; err != nil {
		t.Fatalf("submission not stored: %v", err)
	}
	if stored.WidgetID != w.ID || stored.Values["email"] != "ada@example.com" {
		t.Errorf("stored = %+v", stored)
	}
	if len(n.notified) != 1 {
		t.Errorf("notified %d times, want 1", len(n.notified))
	}
}

func TestSubmitCustomFieldIDKeys(t *testing.T) {
	db := testDB(t)
	h := NewSubmitHandler(db, nil)
	w := seedWidget(t, db, models.WidgetSignup,
		models.WidgetField{FieldName: "Referral Source", FieldType: "text", IsRequired: true, CollectionType: "once_per_form"},
	)

	var wf models.WidgetField
	if err := db.Where("widget_id = ?", w.ID).First(&wf).Error; err != nil {
		t.Fatalf("load field: %v", err)
	}

	in := submitBody(map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	in.PublicID = w.PublicID
	in.Body["custom_fields"] = map[string]any{
		strconv.FormatUint(uint64(wf.ID), 10): "Friend",
	}

	out, err := h.HandleSubmit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var stored models.Submission
	db.First(&stored, out.Body.SubmissionID)
	if stored.Values["Referral Source"] != "Friend" {
		t.Errorf("custom value not resolved to field name: %+v", stored.Values)
	}
}

// The form engines build their own payloads, so the endpoint is exercised
// end to end with a real signup form posting over HTTP.
func TestSubmitAcceptsSignupFormPayload(t *testing.T) {
	db := testDB(t)
	h := NewSubmitHandler(db, nil)
	w := seedWidget(t, db, models.WidgetSignup,
		models.WidgetField{FieldName: "Referral Source", FieldType: "text", IsRequired: true, CollectionType: "once_per_form"},
	)
	var wf models.WidgetField
	db.Where("widget_id = ?", w.ID).First(&wf)

	r := chi.NewRouter()
	api := humachi.New(r, huma.DefaultConfig("Test", "1.0.0"))
	huma.Post(api, "/public/widgets/{publicID}/submissions", h.HandleSubmit)
	srv := httptest.NewServer(r)
	defer srv.Close()

	form := forms.NewSignup(forms.Config{
		ID:          w.ID,
		PublicID:    w.PublicID,
		AppDetailID: w.UserID,
		StudentType: models.StudentShowBoth,
		Fields: []fields.CustomField{{
			ID:             wf.ID,
			FieldName:      "Referral Source",
			FieldType:      "text",
			IsRequired:     true,
			CollectionType: "once_per_form",
		}},
	}, nil)
	form.SetValue("first_name", "Ada")
	form.SetValue("last_name", "Lovelace")
	form.SetValue("email", "ada@example.com")
	form.SetValue("phone", "555-0142")
	form.SetCustomValue(wf.ID, "Friend")

	submitter := forms.NewHTTPSubmitter(srv.URL + "/public/widgets/" + w.PublicID + "/submissions")
	if err := form.Submit(context.Background(), submitter); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !form.Done() {
		t.Error("form did not reach its terminal state")
	}

	var stored models.Submission
	if err := db.Where("widget_id = ?", w.ID).First(&stored).Error; err != nil {
		t.Fatalf("submission not stored: %v", err)
	}
	if stored.StudentType != "adult" {
		t.Errorf("student_type = %q", stored.StudentType)
	}
	if stored.Values["first_name"] != "Ada" || stored.Values["Referral Source"] != "Friend" {
		t.Errorf("stored values = %+v", stored.Values)
	}
}

func TestSubmitInactiveWidget(t *testing.T) {
	db := testDB(t)
	h := NewSubmitHandler(db, nil)
	w := seedWidget(t, db, models.WidgetSignup)
	db.Model(&w).Update("is_active", false)

	in := submitBody(map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	in.PublicID = w.PublicID
	if _, err := h.HandleSubmit(context.Background(), in); err == nil {
		t.Fatal("inactive widget accepted a submission")
	}
}

func TestBookingSubmitMarksSlot(t *testing.T) {
	db := testDB(t)
	h := NewSubmitHandler(db, nil)
	w := seedWidget(t, db, models.WidgetBookAvailability)

	slot := models.ScheduleSlot{WidgetID: w.ID, Date: "2026-09-15", STime: "10:00 AM", EmployeeName: "Sam"}
	db.Create(&slot)

	in := submitBody(map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	in.PublicID = w.PublicID
	in.Body["schedule_id"] = float64(slot.ID)

	if _, err := h.HandleSubmit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var booked models.ScheduleSlot
	db.First(&booked, slot.ID)
	if !booked.Booked {
		t.Error("slot not marked booked")
	}

	// Second booking of the same slot conflicts and stores nothing new
	if _, err := h.HandleSubmit(context.Background(), in); err == nil {
		t.Fatal("double booking accepted")
	}
	var count int64
	db.Model(&models.Submission{}).Count(&count)
	if count != 1 {
		t.Errorf("submissions = %d, want 1", count)
	}
}
