// Package statuspage parses the HTML status page served by Recuair
// ventilation units.
//
// The Recuair firmware exposes no machine-readable API; the only window
// into the device is the HTML page it serves at "/". This package turns
// that page into a Snapshot (sensor readings, warnings, and the control
// forms embedded in the page) without performing any I/O of its own.
//
// # Strictness
//
// Parsing is strict about the structural landmarks it relies on: the
// status container, the device name, the sensor readout, the mode and
// CO2 blocks, the filter and fan usage bars, and the light slider. A
// missing landmark yields a *ParseError naming it - never a zero-filled
// snapshot. Additive changes (extra attributes, extra sibling elements,
// reordered blocks) do not break parsing because landmarks are
// addressed by class or id, not by position.
//
// A stopped unit renders dashes in place of sensor values; those parse
// as absent (nil) readings, which is different from a malformed page.
//
// # Control forms
//
// Every <form> on the page is captured with its action, method, and
// fields, including the allowed value domain of each field (select and
// radio options, numeric ranges, fixed hidden values). Callers resolve
// user input against these discovered domains rather than hardcoding
// what the firmware accepts, so firmware revisions that add modes or
// speeds work without code changes.
package statuspage
