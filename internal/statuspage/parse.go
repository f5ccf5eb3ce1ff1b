package statuspage

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// barStyleRE extracts the offset from a usage bar's inline style, e.g.
// "right:98%". The rendered value is the complement (100 - offset).
var barStyleRE = regexp.MustCompile(`right:\s*(\d+)\s*%`)

// Parse reads a Recuair status page and returns the device state it
// renders. The device argument is recorded on the snapshot for context;
// it does not affect parsing. Parsing is deterministic: the same input
// always yields the same snapshot.
//
// The firmware omits the charset from its Content-Type header; input is
// treated as UTF-8 unconditionally, matching what the device sends.
func Parse(r io.Reader, device string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Landmark: "document", Err: err}
	}
	return parseDocument(doc, device)
}

// ParseBytes parses a status page held in memory.
func ParseBytes(data []byte, device string) (*Snapshot, error) {
	return Parse(bytes.NewReader(data), device)
}

func parseDocument(doc *goquery.Document, device string) (*Snapshot, error) {
	// The firmware sometimes serves its template unrendered (the body is
	// a bare "%%content%%" placeholder); the container check catches that.
	container := doc.Find(".container").First()
	if container.Length() == 0 {
		return nil, &ParseError{Landmark: "container"}
	}

	name := doc.Find(".deviceName").First()
	if name.Length() == 0 {
		return nil, &ParseError{Landmark: "device name"}
	}

	snap := &Snapshot{
		Device: device,
		Name:   strings.TrimSpace(name.Text()),
	}

	bigText := container.Find(".bigText").First()
	if bigText.Length() == 0 {
		return nil, &ParseError{Landmark: "sensor readout"}
	}
	if err := parseSensorReadout(bigText.Text(), snap); err != nil {
		return nil, err
	}

	mode := container.Find(".modeBox span").First()
	if mode.Length() == 0 {
		return nil, &ParseError{Landmark: "mode"}
	}
	snap.Mode = strings.TrimSpace(mode.Text())

	co2 := container.Find(".co2Box b").First()
	if co2.Length() == 0 {
		return nil, &ParseError{Landmark: "CO2 readout"}
	}
	co2PPM, err := parseQuantity(co2.Text(), "CO2 readout")
	if err != nil {
		return nil, err
	}
	snap.CO2PPM = co2PPM

	filterUsed, fan, err := parseUsageBars(container)
	if err != nil {
		return nil, err
	}
	snap.FilterUsed = filterUsed
	snap.Fan = fan

	slider := doc.Find("#myRange").First()
	if slider.Length() == 0 {
		return nil, &ParseError{Landmark: "light slider"}
	}
	rawLight, ok := slider.Attr("value")
	if !ok {
		return nil, &ParseError{Landmark: "light slider value"}
	}
	light, err := strconv.Atoi(strings.TrimSpace(rawLight))
	if err != nil {
		return nil, &ParseError{Landmark: "light slider value", Err: err}
	}
	snap.Light = light

	doc.Find(".alert").Each(func(_ int, sel *goquery.Selection) {
		if msg := collapseSpace(sel.Text()); msg != "" {
			snap.Warnings = append(snap.Warnings, msg)
		}
	})

	snap.Extra = parseDeviceInfo(doc)
	snap.Forms = parseForms(doc)

	return snap, nil
}

// parseSensorReadout splits the composite sensor line. The page renders
// inside temperature and humidity left of the humidity's % sign and the
// outside temperature right of it, e.g. "17 ˚C / 56 %  5 °C". A stopped
// unit renders dashes in place of the numbers.
func parseSensorReadout(text string, snap *Snapshot) error {
	inside, outside, found := strings.Cut(text, "%")
	if !found {
		return &ParseError{
			Landmark: "sensor readout",
			Err:      fmt.Errorf("missing %% separator in %q", collapseSpace(text)),
		}
	}
	tempIn, humIn, found := strings.Cut(inside, "/")
	if !found {
		return &ParseError{
			Landmark: "sensor readout",
			Err:      fmt.Errorf("missing / separator in %q", collapseSpace(text)),
		}
	}

	var err error
	if snap.TemperatureIn, err = parseQuantity(tempIn, "inside temperature"); err != nil {
		return err
	}
	if snap.HumidityIn, err = parseQuantity(humIn, "inside humidity"); err != nil {
		return err
	}
	if snap.TemperatureOut, err = parseQuantity(outside, "outside temperature"); err != nil {
		return err
	}
	return nil
}

// parseQuantity extracts the leading numeric token of a quantity such
// as "1246 ppm" or "17 ˚C". A dash or empty value means the unit is not
// reporting the quantity and parses as nil. The page mixes U+02DA and
// U+00B0 degree marks between readings; only the number is taken.
func parseQuantity(text, landmark string) (*int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] == "-" {
		return nil, nil
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, &ParseError{Landmark: landmark, Err: fmt.Errorf("unexpected value %q", fields[0])}
	}
	return &v, nil
}

// parseUsageBars reads the filter and fan usage bars. Each bar is a
// .filterBox whose inner div is offset from the right edge by the
// unused percentage; boxes without a bar (the scale legend) are
// skipped. The filter bar comes first, the fan bar second.
func parseUsageBars(container *goquery.Selection) (filterUsed, fan int, err error) {
	var values []int
	container.Find(".filterBox").EachWithBreak(func(_ int, box *goquery.Selection) bool {
		style, ok := findBarStyle(box)
		if !ok {
			return true
		}
		m := barStyleRE.FindStringSubmatch(style)
		offset, atoiErr := strconv.Atoi(m[1])
		if atoiErr != nil || offset < 0 || offset > 100 {
			err = &ParseError{Landmark: "usage bar", Err: fmt.Errorf("offset %q out of range", m[1])}
			return false
		}
		values = append(values, 100-offset)
		return true
	})
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, &ParseError{Landmark: "usage bars", Err: fmt.Errorf("found %d of 2", len(values))}
	}
	return values[0], values[1], nil
}

// findBarStyle returns the inline style of the first bar div inside a
// .filterBox, if any.
func findBarStyle(box *goquery.Selection) (string, bool) {
	var style string
	found := false
	box.Find("div[style]").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		s, _ := div.Attr("style")
		if barStyleRE.MatchString(s) {
			style = s
			found = true
			return false
		}
		return true
	})
	return style, found
}

// parseDeviceInfo collects labelled values from the optional device
// info list. Entries are "label: value" items; whatever the snapshot
// schema does not model explicitly is preserved here rather than
// dropped.
func parseDeviceInfo(doc *goquery.Document) map[string]string {
	var extra map[string]string
	doc.Find(".deviceInfo li").Each(func(_ int, item *goquery.Selection) {
		label, value, found := strings.Cut(item.Text(), ":")
		if !found {
			return
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			return
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[label] = value
	})
	return extra
}

// collapseSpace trims and collapses runs of whitespace into single
// spaces. Warning texts span multiple indented lines in the page.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
