package statuspage

import "fmt"

// Snapshot represents the state of a Recuair unit as rendered on its
// status page. Sensor fields are pointers because a stopped unit
// renders dashes instead of values; nil means "not reported", which is
// distinct from zero.
type Snapshot struct {
	// Device is the host the page was fetched from (as given by the caller).
	Device string `json:"device"`

	// Name is the user-assigned device name shown in the page header.
	Name string `json:"name"`

	// Mode is the operating mode as displayed (e.g. "AUTO", "Off").
	Mode string `json:"mode"`

	// TemperatureIn is the inside temperature in °C.
	TemperatureIn *int `json:"temperature_in"`

	// HumidityIn is the inside relative humidity in %.
	HumidityIn *int `json:"humidity_in"`

	// TemperatureOut is the outside temperature in °C.
	TemperatureOut *int `json:"temperature_out"`

	// CO2PPM is the CO2 concentration in ppm.
	CO2PPM *int `json:"co2_ppm"`

	// FilterUsed is the filter wear in percent (0 = fresh, 100 = spent).
	FilterUsed int `json:"filter_used"`

	// Fan is the fan output in percent.
	Fan int `json:"fan"`

	// Light is the light intensity, range 0-5.
	Light int `json:"light"`

	// Warnings holds alert messages shown on the page, in page order.
	// The firmware emits these in Czech.
	Warnings []string `json:"warnings,omitempty"`

	// Extra holds labelled values from the device info section that the
	// schema does not model explicitly (firmware version, serial, ...).
	// Unknown entries land here instead of being dropped.
	Extra map[string]string `json:"extra,omitempty"`

	// Forms are the control forms embedded in the page, in page order.
	Forms []Form `json:"-"`
}

// Running reports whether the unit is currently reporting sensor data.
// A stopped unit renders dashes for all sensor readings.
func (s *Snapshot) Running() bool {
	return s.TemperatureIn != nil || s.HumidityIn != nil || s.TemperatureOut != nil
}

// Form returns the form with the given name, or nil if the page has none.
func (s *Snapshot) Form(name string) *Form {
	for i := range s.Forms {
		if s.Forms[i].Name == name {
			return &s.Forms[i]
		}
	}
	return nil
}

// FormWithField returns the first form containing a field with the
// given name, or nil if no form has such a field.
func (s *Snapshot) FormWithField(field string) *Form {
	for i := range s.Forms {
		if s.Forms[i].Field(field) != nil {
			return &s.Forms[i]
		}
	}
	return nil
}

// ParseError describes a status page that is missing a structural
// landmark or carries a value that cannot be interpreted. The firmware
// occasionally serves an unrendered template; that surfaces here too.
type ParseError struct {
	// Landmark names the part of the page that failed (e.g. "container",
	// "sensor readout", "light slider").
	Landmark string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed status page: %s: %v", e.Landmark, e.Err)
	}
	return fmt.Sprintf("malformed status page: %s not found", e.Landmark)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ParseError) Unwrap() error {
	return e.Err
}
