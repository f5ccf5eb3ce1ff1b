//go:build ignore

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ziima/recuair-cli/internal/statuspage"
)

// Statistics tracks parsing results across all captures
type Statistics struct {
	TotalFiles   int
	ParseSuccess int
	ParseFailure int
	Modes        map[string]int
	FormNames    map[string]int
	ParsedPages  []ParsedPage
	FailedPages  []FailedPage
}

// ParsedPage summarizes one successfully parsed capture
type ParsedPage struct {
	File    string
	Summary string
}

// FailedPage stores information about parsing failures
type FailedPage struct {
	File     string
	Landmark string
	Error    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate-page <directory-or-file>")
		fmt.Println("Example: validate-page internal/statuspage/testdata/")
		fmt.Println("         validate-page capture-20260825-104043.html")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		Modes:     make(map[string]int),
		FormNames: make(map[string]int),
	}

	// Check if path is directory or file
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		// Find all HTML captures in directory
		pattern := filepath.Join(path, "*.html")
		files, err = filepath.Glob(pattern)
		if err != nil {
			fmt.Printf("Error finding HTML files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No HTML files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		// Single file
		files = []string{path}
	}

	fmt.Printf("=== Recuair Page Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	// Process each file
	for _, file := range files {
		processFile(file, &stats)
	}

	// Print results
	printStatistics(&stats)
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}

	snap, err := statuspage.ParseBytes(data, filepath.Base(filename))
	if err != nil {
		stats.ParseFailure++
		failed := FailedPage{File: filename, Error: err.Error()}
		var parseErr *statuspage.ParseError
		if errors.As(err, &parseErr) {
			failed.Landmark = parseErr.Landmark
		}
		stats.FailedPages = append(stats.FailedPages, failed)
		return
	}

	// Success!
	stats.ParseSuccess++
	stats.Modes[snap.Mode]++
	for _, form := range snap.Forms {
		stats.FormNames[form.Name]++
	}
	stats.ParsedPages = append(stats.ParsedPages, ParsedPage{
		File:    filename,
		Summary: summarize(snap),
	})
}

// summarize renders one snapshot as a single line for the report.
func summarize(snap *statuspage.Snapshot) string {
	name := snap.Name
	if name == "" {
		name = "(unnamed)"
	}
	line := fmt.Sprintf("%s, mode %s, inside %s / %s, outside %s, CO2 %s, filter %d%%, fan %d%%, light %d",
		name, snap.Mode,
		quantity(snap.TemperatureIn, " °C"),
		quantity(snap.HumidityIn, " %"),
		quantity(snap.TemperatureOut, " °C"),
		quantity(snap.CO2PPM, " ppm"),
		snap.FilterUsed, snap.Fan, snap.Light)
	if len(snap.Warnings) > 0 {
		line += fmt.Sprintf(", %d warning(s)", len(snap.Warnings))
	}
	return line
}

func quantity(v *int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%s", *v, unit)
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Parse Success:      %d (%.2f%%)\n", stats.ParseSuccess,
		float64(stats.ParseSuccess)/float64(stats.TotalFiles)*100)
	fmt.Printf("Parse Failure:      %d (%.2f%%)\n", stats.ParseFailure,
		float64(stats.ParseFailure)/float64(stats.TotalFiles)*100)

	if len(stats.ParsedPages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("PARSED PAGES\n")
		fmt.Printf("----------------------------------------\n")
		for _, page := range stats.ParsedPages {
			fmt.Printf("%s:\n  %s\n", page.File, page.Summary)
		}
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("MODE DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	for _, mode := range sortedKeys(stats.Modes) {
		count := stats.Modes[mode]
		percentage := float64(count) / float64(stats.ParseSuccess) * 100
		fmt.Printf("%s: %d (%.2f%%)\n", mode, count, percentage)
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("CONTROL FORMS DISCOVERED\n")
	fmt.Printf("----------------------------------------\n")
	for _, name := range sortedKeys(stats.FormNames) {
		fmt.Printf("%s: present in %d page(s)\n", name, stats.FormNames[name])
	}

	if len(stats.FailedPages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("PARSE FAILURES (%d total)\n", len(stats.FailedPages))
		fmt.Printf("----------------------------------------\n")

		for i, failed := range stats.FailedPages {
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s\n", failed.File)
			if failed.Landmark != "" {
				fmt.Printf("  Landmark: %s\n", failed.Landmark)
			}
			fmt.Printf("  Error: %s\n", failed.Error)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.ParseFailure == 0 {
		fmt.Printf("✅ SUCCESS: All pages parsed successfully!\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d pages failed to parse\n", stats.ParseFailure)
		fmt.Printf("Please report failed pages at https://github.com/ziima/recuair-cli/issues\n")
	}
	fmt.Printf("========================================\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
