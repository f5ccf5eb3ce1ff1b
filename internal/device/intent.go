package device

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ziima/recuair-cli/internal/statuspage"
)

// Intent describes a desired control change in device terms: a set of
// form field assignments, optionally pinned to a named form.
type Intent struct {
	// Form names the control form to submit. Empty means the form is
	// found by field ownership.
	Form string

	// Set maps field names to requested values. A value may be symbolic
	// (e.g. a mode name) and is resolved against the field's discovered
	// options.
	Set map[string]string
}

// ModeIntent returns the intent that switches the unit's operating mode
func ModeIntent(mode string) Intent {
	return Intent{Set: map[string]string{"mode": mode}}
}

// FanSpeedIntent returns the intent that sets the fan speed step
func FanSpeedIntent(speed string) Intent {
	return Intent{Set: map[string]string{"fan_speed": speed}}
}

// LightIntent returns the intent that sets light intensity and color
func LightIntent(intensity, r, g, b string) Intent {
	return Intent{Set: map[string]string{
		"intensity": intensity,
		"r":         r,
		"g":         g,
		"b":         b,
	}}
}

// LightOffIntent returns the intent that switches the light off
func LightOffIntent() Intent {
	return LightIntent("0", "0", "0", "0")
}

// ResetFiltersIntent returns the intent that rearms the filter lifetime
// counter after a filter change
func ResetFiltersIntent() Intent {
	return Intent{Set: map[string]string{"filterNotification": "1"}}
}

// SetIntent returns an intent for one arbitrary field assignment. This
// backs the generic "set" command for controls this tool has no word
// for yet.
func SetIntent(field, value string) Intent {
	return Intent{Set: map[string]string{field: value}}
}

// Translate validates an intent against the controls a snapshot
// discovered and produces the exact submission for it. The submission
// starts from the form's current values, so untouched fields re-submit
// what the device already shows. Translate touches no network; a
// validation failure here means no write was attempted.
func Translate(snap *statuspage.Snapshot, intent Intent) (*statuspage.Form, url.Values, error) {
	if len(intent.Set) == 0 {
		return nil, nil, NewInvalidValueError("nothing to change")
	}

	names := make([]string, 0, len(intent.Set))
	for name := range intent.Set {
		names = append(names, name)
	}
	sort.Strings(names)

	form, err := targetForm(snap, intent, names)
	if err != nil {
		return nil, nil, err
	}

	values := form.Values()
	for _, name := range names {
		field := form.Field(name)
		if field == nil {
			return nil, nil, NewUnsupportedOperationError(
				fmt.Sprintf("the device's %s form has no %q control", form.Name, name))
		}

		resolved, err := resolveValue(field, intent.Set[name])
		if err != nil {
			return nil, nil, err
		}

		// An empty resolved value on a choice field means "none": the
		// browser would omit it.
		if resolved == "" && (field.Kind == statuspage.FieldCheckbox || field.Kind == statuspage.FieldRadio) {
			values.Del(name)
			continue
		}
		values.Set(name, resolved)
	}

	return form, values, nil
}

// targetForm finds the single form an intent addresses
func targetForm(snap *statuspage.Snapshot, intent Intent, names []string) (*statuspage.Form, error) {
	if intent.Form != "" {
		form := snap.Form(intent.Form)
		if form == nil {
			return nil, NewUnsupportedOperationError(
				fmt.Sprintf("the device page has no %q form", intent.Form))
		}
		return form, nil
	}

	var form *statuspage.Form
	for _, name := range names {
		owner := snap.FormWithField(name)
		if owner == nil {
			return nil, NewUnsupportedOperationError(
				fmt.Sprintf("the device does not expose a %q control", name))
		}
		if form == nil {
			form = owner
			continue
		}
		if owner != form {
			return nil, NewUnsupportedOperationError(
				fmt.Sprintf("fields %s belong to different forms and cannot be submitted together",
					strings.Join(names, ", ")))
		}
	}
	return form, nil
}

// resolveValue maps a requested value onto what the field accepts,
// resolving symbolic words against discovered options
func resolveValue(field *statuspage.FormField, value string) (string, error) {
	if field.Allows(value) {
		return value, nil
	}
	if resolved, ok := field.ResolveOption(value); ok {
		return resolved, nil
	}
	return "", NewInvalidValueError(
		fmt.Sprintf("%s does not accept %q: expected %s", field.Name, value, field.Domain()))
}
