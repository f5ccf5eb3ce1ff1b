// Package urls provides centralized constants for the project URLs used
// throughout the application.
//
// This package exists so URLs can be updated in a single location
// before release instead of hunting through code.
//
// Usage:
//
//	import "github.com/ziima/recuair-cli/internal/urls"
//
//	fmt.Printf("Report the page at: %s\n", urls.IssueTracker)
package urls
