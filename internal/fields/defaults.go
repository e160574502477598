package fields

// Field types supported by the field editor. The server additionally uses
// "text_single" for the built-in default fields.
const (
	TypeText     = "text"
	TypeEmail    = "email"
	TypePhone    = "phone"
	TypeTextarea = "textarea"
	TypeDropdown = "dropdown"
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeDate     = "date"
	TypeNumber   = "number"

	DefaultFieldType = "text_single"
)

// Collection scopes.
const (
	OncePerForm    = "once_per_form"
	OncePerStudent = "once_per_student"
)

// DefaultFieldNames is the fixed list of built-in field names. Membership
// in this list is the sole discriminator between default fields (rendered
// as required/optional toggles) and custom fields (fully editable).
var DefaultFieldNames = []string{
	"Address",
	"Birthday",
	"Email",
	"Phone",
	"FaceTime ID",
	"Gender",
	"How Did You Hear About Us? (Referrer)",
	"School",
	"Skill Level",
	"Skype ID",
	"Zoom ID",
	"Subjects",
}

var defaultFieldSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(DefaultFieldNames))
	for _, name := range DefaultFieldNames {
		s[name] = struct{}{}
	}
	return s
}()

// IsDefaultField reports whether name belongs to the built-in field list.
func IsDefaultField(name string) bool {
	_, ok := defaultFieldSet[name]
	return ok
}

// HasOptions reports whether fieldType carries a choice list.
func HasOptions(fieldType string) bool {
	switch fieldType {
	case TypeDropdown, TypeRadio, TypeCheckbox:
		return true
	}
	return false
}
