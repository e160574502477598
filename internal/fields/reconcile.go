// Package fields implements the two-way mapping between the widget API's
// flat field array and the builder's three-part draft representation
// (required defaults, optional defaults, custom fields).
package fields

// Record is the field shape the widget API returns. Note that is_required
// arrives as the string "1"/"0", not a boolean.
type Record struct {
	ID             uint     `json:"id,omitempty"`
	FieldName      string   `json:"field_name"`
	FieldType      string   `json:"field_type"`
	FieldOptions   []string `json:"field_options,omitempty"`
	HintText       string   `json:"hint_text,omitempty"`
	IsRequired     string   `json:"is_required"`
	CollectionType string   `json:"collection_type,omitempty"`
	FieldOrder     int      `json:"field_order,omitempty"`
}

// PayloadField is the field shape sent on widget create/update. Requiredness
// is coerced to 1/0 for wire compatibility.
type PayloadField struct {
	FieldName      string   `json:"field_name"`
	FieldType      string   `json:"field_type"`
	HintText       string   `json:"hint_text"`
	IsRequired     int      `json:"is_required"`
	CollectionType string   `json:"collection_type"`
	FieldOptions   []string `json:"field_options,omitempty"`
}

// CustomField is a fully editable, non-default field in the builder.
type CustomField struct {
	ID             uint     `json:"id,omitempty"`
	FieldName      string   `json:"field_name"`
	FieldType      string   `json:"field_type"`
	FieldOptions   []string `json:"field_options"`
	HintText       string   `json:"hint_text"`
	IsRequired     bool     `json:"is_required"`
	CollectionType string   `json:"collection_type"`
	FieldOrder     int      `json:"field_order,omitempty"`
}

// Draft is the builder-side partition of a widget's fields: two disjoint
// sets of default field names plus the list of custom fields.
type Draft struct {
	Required []string      `json:"required_fields"`
	Optional []string      `json:"optional_fields"`
	Custom   []CustomField `json:"custom_fields"`
}

// Load classifies a server field array into a draft. Default names route to
// the required or optional set depending on is_required; everything else is
// kept as a custom field. One pass, order preserved within each part.
func Load(records []Record) Draft {
	d := Draft{
		Required: []string{},
		Optional: []string{},
		Custom:   []CustomField{},
	}
	for _, rec := range records {
		if IsDefaultField(rec.FieldName) {
			if rec.IsRequired == "1" {
				d.Required = append(d.Required, rec.FieldName)
			} else {
				d.Optional = append(d.Optional, rec.FieldName)
			}
			continue
		}
		opts := rec.FieldOptions
		if opts == nil {
			opts = []string{}
		}
		d.Custom = append(d.Custom, CustomField{
			ID:             rec.ID,
			FieldName:      rec.FieldName,
			FieldType:      rec.FieldType,
			FieldOptions:   opts,
			HintText:       rec.HintText,
			IsRequired:     rec.IsRequired == "1",
			CollectionType: rec.CollectionType,
			FieldOrder:     rec.FieldOrder,
		})
	}
	return d
}

// BuildPayload flattens a draft back into the single ordered field array
// the server expects: required defaults, then optional defaults, then
// custom fields. Custom fields missing a name or a type are dropped, and a
// choice list is attached only for option-bearing types that actually have
// options.
func BuildPayload(d Draft) []PayloadField {
	out := make([]PayloadField, 0, len(d.Required)+len(d.Optional)+len(d.Custom))

	for _, name := range d.Required {
		out = append(out, PayloadField{
			FieldName:      name,
			FieldType:      DefaultFieldType,
			IsRequired:     1,
			CollectionType: OncePerForm,
		})
	}
	for _, name := range d.Optional {
		out = append(out, PayloadField{
			FieldName:      name,
			FieldType:      DefaultFieldType,
			IsRequired:     0,
			CollectionType: OncePerForm,
		})
	}
	for _, f := range d.Custom {
		if f.FieldName == "" || f.FieldType == "" {
			continue
		}
		p := PayloadField{
			FieldName:      f.FieldName,
			FieldType:      f.FieldType,
			HintText:       f.HintText,
			CollectionType: f.CollectionType,
		}
		if f.IsRequired {
			p.IsRequired = 1
		}
		if p.CollectionType == "" {
			p.CollectionType = OncePerForm
		}
		if HasOptions(f.FieldType) && len(f.FieldOptions) > 0 {
			p.FieldOptions = f.FieldOptions
		}
		out = append(out, p)
	}
	return out
}

// SelectRequired toggles name in the required set. Adding removes the name
// from the optional set so the two sets stay disjoint.
func (d *Draft) SelectRequired(name string) {
	if contains(d.Required, name) {
		d.Required = remove(d.Required, name)
		return
	}
	d.Required = append(d.Required, name)
	d.Optional = remove(d.Optional, name)
}

// SelectOptional toggles name in the optional set, removing it from the
// required set when adding.
func (d *Draft) SelectOptional(name string) {
	if contains(d.Optional, name) {
		d.Optional = remove(d.Optional, name)
		return
	}
	d.Optional = append(d.Optional, name)
	d.Required = remove(d.Required, name)
}

// Normalize restores the draft invariants after a wholesale replacement:
// both sets carry default names only, without duplicates, and a name in
// both sets resolves to required.
func (d *Draft) Normalize() {
	d.Required = cleanDefaults(d.Required, nil)
	d.Optional = cleanDefaults(d.Optional, d.Required)
	if d.Custom == nil {
		d.Custom = []CustomField{}
	}
}

func cleanDefaults(names, exclude []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !IsDefaultField(n) || contains(out, n) || contains(exclude, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
