package statuspage

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldKind classifies a form field by its input type.
type FieldKind string

// Field kinds as discovered on the page.
const (
	FieldText     FieldKind = "text"
	FieldHidden   FieldKind = "hidden"
	FieldNumber   FieldKind = "number"
	FieldRange    FieldKind = "range"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
	FieldCheckbox FieldKind = "checkbox"
)

// Option is one selectable value of a select or radio field.
type Option struct {
	// Value is the canonical submit value.
	Value string

	// Label is the human-readable text shown next to the option. For
	// radio inputs without markup labels it equals the value.
	Label string
}

// FormField is a single submittable field discovered in a control
// form. The field carries whatever value the page pre-filled, so an
// unmodified form submits as a no-op.
type FormField struct {
	// Name is the submit name of the field.
	Name string

	// Kind is the input type.
	Kind FieldKind

	// Value is the current value: the pre-filled value for text-like
	// fields, the selected option for selects and radio groups, the
	// submit value for checked checkboxes and "" for unchecked ones.
	Value string

	// Options lists the declared values of select and radio fields, in
	// page order. For checkboxes it holds the single submit value.
	Options []Option

	// Min and Max are the declared bounds of number and range inputs,
	// empty when the page declares none.
	Min string
	Max string
}

// Allows reports whether the field accepts the given value. Hidden
// fields accept exactly their fixed value, option fields any declared
// option, bounded numeric fields any integer within bounds. Free-text
// fields accept anything.
func (f *FormField) Allows(value string) bool {
	switch f.Kind {
	case FieldHidden:
		return value == f.Value
	case FieldSelect, FieldRadio:
		for _, o := range f.Options {
			if o.Value == value {
				return true
			}
		}
		return false
	case FieldCheckbox:
		if value == "" {
			return true
		}
		for _, o := range f.Options {
			if o.Value == value {
				return true
			}
		}
		return false
	case FieldNumber, FieldRange:
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return f.inBounds(n)
	default:
		return true
	}
}

func (f *FormField) inBounds(n int) bool {
	if f.Min != "" {
		if lo, err := strconv.Atoi(f.Min); err == nil && n < lo {
			return false
		}
	}
	if f.Max != "" {
		if hi, err := strconv.Atoi(f.Max); err == nil && n > hi {
			return false
		}
	}
	return true
}

// ResolveOption maps a user-supplied word onto one of the field's
// declared options, matching option values and labels without case
// sensitivity. It returns the canonical submit value.
func (f *FormField) ResolveOption(word string) (string, bool) {
	for _, o := range f.Options {
		if strings.EqualFold(word, o.Value) || strings.EqualFold(word, o.Label) {
			return o.Value, true
		}
	}
	return "", false
}

// Domain describes the values the field accepts, for error messages.
func (f *FormField) Domain() string {
	switch f.Kind {
	case FieldHidden:
		return fmt.Sprintf("fixed value %q", f.Value)
	case FieldSelect, FieldRadio, FieldCheckbox:
		opts := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			opts = append(opts, o.Value)
		}
		return "one of " + strings.Join(opts, ", ")
	case FieldNumber, FieldRange:
		switch {
		case f.Min != "" && f.Max != "":
			return fmt.Sprintf("a number between %s and %s", f.Min, f.Max)
		case f.Min != "":
			return fmt.Sprintf("a number of at least %s", f.Min)
		case f.Max != "":
			return fmt.Sprintf("a number of at most %s", f.Max)
		default:
			return "a number"
		}
	default:
		return "free text"
	}
}

// Form is a control form discovered on the status page.
type Form struct {
	// Name identifies the form: its id attribute, falling back to the
	// name attribute, falling back to a positional "form-N".
	Name string

	// Action is the submit target as given in the page.
	Action string

	// Method is the submit method, uppercased. The firmware's control
	// forms all POST.
	Method string

	// Fields are the submittable fields in page order. Radio inputs
	// sharing a name appear as a single field with options.
	Fields []FormField
}

// Field returns the field with the given name, or nil.
func (f *Form) Field(name string) *FormField {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// Values returns the submission the page itself would produce: every
// field with its current value, as a plain browser submit would send
// them. Unchecked checkboxes and unselected radio groups are omitted.
func (f *Form) Values() url.Values {
	vals := make(url.Values, len(f.Fields))
	for _, fld := range f.Fields {
		if (fld.Kind == FieldCheckbox || fld.Kind == FieldRadio) && fld.Value == "" {
			continue
		}
		vals.Set(fld.Name, fld.Value)
	}
	return vals
}

// parseForms walks the page's forms and models their submittable
// fields. Buttons and submit inputs are not submittable state and are
// skipped.
func parseForms(doc *goquery.Document) []Form {
	var forms []Form
	doc.Find("form").Each(func(i int, sel *goquery.Selection) {
		form := Form{
			Name:   formName(sel, i),
			Action: sel.AttrOr("action", "/"),
			Method: strings.ToUpper(sel.AttrOr("method", "GET")),
		}
		radios := make(map[string]int)
		sel.Find("input, select, textarea").Each(func(_ int, el *goquery.Selection) {
			parseField(el, &form, radios)
		})
		forms = append(forms, form)
	})
	return forms
}

func formName(sel *goquery.Selection, index int) string {
	if id := sel.AttrOr("id", ""); id != "" {
		return id
	}
	if name := sel.AttrOr("name", ""); name != "" {
		return name
	}
	return fmt.Sprintf("form-%d", index)
}

func parseField(el *goquery.Selection, form *Form, radios map[string]int) {
	name := el.AttrOr("name", "")
	if name == "" {
		return
	}

	switch goquery.NodeName(el) {
	case "select":
		form.Fields = append(form.Fields, parseSelect(el, name))
		return
	case "textarea":
		form.Fields = append(form.Fields, FormField{
			Name:  name,
			Kind:  FieldText,
			Value: strings.TrimSpace(el.Text()),
		})
		return
	}

	typ := strings.ToLower(el.AttrOr("type", "text"))
	switch typ {
	case "submit", "button", "reset", "image", "file":
		return
	case "radio":
		parseRadio(el, name, form, radios)
	case "checkbox":
		submitValue := el.AttrOr("value", "on")
		fld := FormField{
			Name:    name,
			Kind:    FieldCheckbox,
			Options: []Option{{Value: submitValue, Label: submitValue}},
		}
		if _, checked := el.Attr("checked"); checked {
			fld.Value = submitValue
		}
		form.Fields = append(form.Fields, fld)
	case "hidden":
		form.Fields = append(form.Fields, FormField{
			Name:  name,
			Kind:  FieldHidden,
			Value: el.AttrOr("value", ""),
		})
	case "number", "range":
		kind := FieldNumber
		if typ == "range" {
			kind = FieldRange
		}
		form.Fields = append(form.Fields, FormField{
			Name:  name,
			Kind:  kind,
			Value: el.AttrOr("value", ""),
			Min:   el.AttrOr("min", ""),
			Max:   el.AttrOr("max", ""),
		})
	default:
		// Unrecognized input types degrade to free text rather than
		// rejecting a page that merely gained a fancier widget.
		form.Fields = append(form.Fields, FormField{
			Name:  name,
			Kind:  FieldText,
			Value: el.AttrOr("value", ""),
		})
	}
}

func parseSelect(el *goquery.Selection, name string) FormField {
	fld := FormField{Name: name, Kind: FieldSelect}
	var first string
	el.Find("option").Each(func(j int, opt *goquery.Selection) {
		label := collapseSpace(opt.Text())
		value := opt.AttrOr("value", label)
		fld.Options = append(fld.Options, Option{Value: value, Label: label})
		if j == 0 {
			first = value
		}
		if _, selected := opt.Attr("selected"); selected {
			fld.Value = value
		}
	})
	// Browsers submit the first option when none is marked selected.
	if fld.Value == "" {
		fld.Value = first
	}
	return fld
}

// parseRadio folds radio inputs sharing a name into one field whose
// options are the group's values.
func parseRadio(el *goquery.Selection, name string, form *Form, radios map[string]int) {
	value := el.AttrOr("value", "on")
	_, checked := el.Attr("checked")
	opt := Option{Value: value, Label: value}

	if idx, ok := radios[name]; ok {
		fld := &form.Fields[idx]
		fld.Options = append(fld.Options, opt)
		if checked {
			fld.Value = value
		}
		return
	}

	fld := FormField{Name: name, Kind: FieldRadio, Options: []Option{opt}}
	if checked {
		fld.Value = value
	}
	radios[name] = len(form.Fields)
	form.Fields = append(form.Fields, fld)
}
