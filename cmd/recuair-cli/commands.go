package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziima/recuair-cli/internal/config"
	"github.com/ziima/recuair-cli/internal/device"
	"github.com/ziima/recuair-cli/internal/discovery"
	"github.com/ziima/recuair-cli/internal/logging"
	"github.com/ziima/recuair-cli/internal/statuspage"
	"github.com/ziima/recuair-cli/internal/ui"
	"github.com/ziima/recuair-cli/internal/watch"
)

// passwordEnvVar supplies the device password when --password is not given.
// Passwords are never stored in the config registry.
const passwordEnvVar = "RECUAIR_PASSWORD"

// maxParallelDevices bounds the worker count for multi-device commands
const maxParallelDevices = 4

// Command flags
var (
	timeoutSeconds int
	retryCount     int
	outputFormat   string
	debugMode      bool
	username       string
	password       string

	scanTimeout   int
	saveScan      bool
	skipConfirm   bool
	watchInterval int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 2, "Request timeout in seconds")
	rootCmd.PersistentFlags().IntVar(&retryCount, "retries", 3, "Attempts per request for transient failures")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, compact, json)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Print debug logs")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Username for units that require authentication")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Password for units that require authentication (or "+passwordEnvVar+")")

	// Add subcommands directly to root
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(holidayCmd)
	rootCmd.AddCommand(bypassCmd)
	rootCmd.AddCommand(fanCmd)
	rootCmd.AddCommand(lightCmd)
	rootCmd.AddCommand(resetFiltersCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
}

// statusCmd reads and prints the state of one or more units
var statusCmd = &cobra.Command{
	Use:   "status <device>...",
	Short: "Show the current state of one or more units",
	Long: `Read the status page of each unit and print its state: operating
mode, temperatures, humidity, CO2 level, filter wear, fan output, and
light setting.

Devices are given as hostnames or IP addresses, or as names from the
device registry. Multiple devices are queried in parallel.`,
	Example: `  # Status of a unit by IP
  recuair-cli status 192.168.1.44

  # Status of registered units by name
  recuair-cli status bedroom kitchen

  # One line per unit
  recuair-cli status --format compact bedroom kitchen

  # JSON for scripting
  recuair-cli status --format json bedroom`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	if _, ok := config.OutputFormats[outputFormat]; !ok {
		return fmt.Errorf("unknown output format %q (available: text, compact, json)", outputFormat)
	}

	outcomes := forEachDevice(reg, args, func(ctx context.Context, client *device.Client) (*statuspage.Snapshot, error) {
		return client.FetchStatus(ctx)
	})

	switch outputFormat {
	case "json":
		if err := printSnapshotsJSON(outcomes); err != nil {
			return err
		}
	case "compact":
		for _, outcome := range outcomes {
			if outcome.err != nil {
				fmt.Printf("%s: %s\n", outcome.label, device.GetShortErrorMessage(outcome.err))
				continue
			}
			fmt.Println(device.FormatCompact(outcome.snap))
		}
	default:
		for i, outcome := range outcomes {
			if i > 0 {
				fmt.Println()
			}
			if outcome.err != nil {
				fmt.Printf("%s: %s\n", outcome.label, device.GetShortErrorMessage(outcome.err))
				continue
			}
			fmt.Println(device.FormatDetailed(outcome.snap))
		}
	}

	return failuresError(outcomes)
}

// printSnapshotsJSON prints fetched snapshots as one JSON document.
// Errors go to stderr so the document on stdout stays valid.
func printSnapshotsJSON(outcomes []deviceOutcome) error {
	snaps := make([]*statuspage.Snapshot, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", outcome.label, device.GetShortErrorMessage(outcome.err))
			continue
		}
		snaps = append(snaps, outcome.snap)
	}
	if len(snaps) == 0 {
		return nil
	}

	var data []byte
	var err error
	if len(snaps) == 1 {
		data, err = json.MarshalIndent(snaps[0], "", "  ")
	} else {
		data, err = json.MarshalIndent(snaps, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// startCmd switches units to automatic operation
var startCmd = &cobra.Command{
	Use:   "start <device>...",
	Short: "Start units (automatic mode)",
	Long:  `Switch each unit to automatic operation.`,
	Example: `  # Start a unit
  recuair-cli start bedroom

  # Start several units at once
  recuair-cli start bedroom kitchen attic`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDevices(cmd, args, device.ModeIntent("auto"), "started (mode auto)")
	},
}

// stopCmd switches units off
var stopCmd = &cobra.Command{
	Use:   "stop <device>...",
	Short: "Stop units",
	Long:  `Switch each unit off. Sensor readings stop while the unit is off.`,
	Example: `  recuair-cli stop bedroom
  recuair-cli stop bedroom kitchen`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDevices(cmd, args, device.ModeIntent("off"), "stopped")
	},
}

// holidayCmd switches units to holiday mode
var holidayCmd = &cobra.Command{
	Use:   "holiday <device>...",
	Short: "Switch units to holiday mode",
	Long: `Switch each unit to holiday mode: minimal ventilation while
nobody is home.`,
	Example: `  recuair-cli holiday bedroom kitchen`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDevices(cmd, args, device.ModeIntent("holiday"), "holiday mode enabled")
	},
}

// bypassCmd switches units to bypass mode
var bypassCmd = &cobra.Command{
	Use:   "bypass <device>...",
	Short: "Switch units to bypass mode",
	Long: `Switch each unit to bypass mode: air circulates without heat
recovery, useful for free summer cooling.`,
	Example: `  recuair-cli bypass bedroom`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDevices(cmd, args, device.ModeIntent("bypass"), "bypass mode enabled")
	},
}

// fanCmd sets the fan speed step
var fanCmd = &cobra.Command{
	Use:   "fan <speed> <device>...",
	Short: "Set the fan speed step",
	Long: `Set the fan speed step on each unit. The available steps are
discovered from the unit's own controls; a value the unit does not
offer is rejected before anything is sent.`,
	Example: `  # Full speed on one unit
  recuair-cli fan 3 bedroom

  # Low speed on several units
  recuair-cli fan 1 bedroom kitchen`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		verb := fmt.Sprintf("fan speed set to %s", args[0])
		return applyToDevices(cmd, args[1:], device.FanSpeedIntent(args[0]), verb)
	},
}

// lightCmd sets the light intensity and color
var lightCmd = &cobra.Command{
	Use:   "light <intensity> <r> <g> <b> <device>... | light off <device>...",
	Short: "Set the light intensity and color",
	Long: `Set the unit's light. Intensity ranges 0-5 as on the unit's own
slider; r, g and b are color channels 0-255.

'light off' switches the light off (all values zero).`,
	Example: `  # Warm white at intensity 2
  recuair-cli light 2 255 200 150 bedroom

  # Switch the light off
  recuair-cli light off bedroom kitchen`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLight,
}

func runLight(cmd *cobra.Command, args []string) error {
	if args[0] == "off" {
		return applyToDevices(cmd, args[1:], device.LightOffIntent(), "light switched off")
	}
	if len(args) < 5 {
		return fmt.Errorf("light needs <intensity> <r> <g> <b> followed by at least one device, or 'off'")
	}
	intent := device.LightIntent(args[0], args[1], args[2], args[3])
	verb := fmt.Sprintf("light set to %s", args[0])
	return applyToDevices(cmd, args[4:], intent, verb)
}

// resetFiltersCmd rearms the filter lifetime counter
var resetFiltersCmd = &cobra.Command{
	Use:   "reset-filters <device>...",
	Short: "Reset the filter change notification",
	Long: `Clear the filter change notification after replacing the filters.
The unit counts filter lifetime from zero again.

Asks for confirmation unless --yes is given.`,
	Example: `  # Reset after a filter change
  recuair-cli reset-filters bedroom

  # Skip the confirmation prompt
  recuair-cli reset-filters --yes bedroom`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResetFilters,
}

func init() {
	resetFiltersCmd.Flags().BoolVar(&skipConfirm, "yes", false, "Skip the confirmation prompt")
}

func runResetFilters(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if !skipConfirm {
		if !ui.ResetFiltersConfirmation(strings.Join(args, ", ")) {
			return nil
		}
	}
	return applyToDevices(cmd, args, device.ResetFiltersIntent(), "filter notification reset")
}

// setCmd submits arbitrary control fields
var setCmd = &cobra.Command{
	Use:   "set <field>=<value>... <device>...",
	Short: "Set arbitrary control fields",
	Long: `Set one or more control fields directly. Fields and their allowed
values are discovered from the unit's own control forms; unknown fields
and out-of-range values are rejected before anything is sent. All
fields of one invocation must belong to the same control form.

This is the escape hatch for controls this tool has no dedicated
command for.`,
	Example: `  # Equivalent of 'fan 2'
  recuair-cli set fan_speed=2 bedroom

  # Mode change by field name
  recuair-cli set mode=holiday bedroom kitchen`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	changes, devices, err := splitAssignments(args)
	if err != nil {
		return err
	}

	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	verb := fmt.Sprintf("set %s", strings.Join(fields, ", "))
	return applyToDevices(cmd, devices, device.Intent{Set: changes}, verb)
}

// splitAssignments separates leading field=value arguments from the
// trailing device list.
func splitAssignments(args []string) (map[string]string, []string, error) {
	changes := make(map[string]string)
	rest := args
	for len(rest) > 0 {
		field, value, ok := strings.Cut(rest[0], "=")
		if !ok {
			break
		}
		if field == "" {
			return nil, nil, fmt.Errorf("invalid assignment %q: empty field name", rest[0])
		}
		changes[field] = value
		rest = rest[1:]
	}
	if len(changes) == 0 {
		return nil, nil, fmt.Errorf("no field=value assignments given")
	}
	if len(rest) == 0 {
		return nil, nil, fmt.Errorf("no devices given")
	}
	return changes, rest, nil
}

// scanCmd discovers units on the network
var scanCmd = &cobra.Command{
	Use:   "scan [serial]",
	Short: "Scan for Recuair units on the network",
	Long: `Scan for Recuair units using mDNS/DNS-SD discovery. Units announce
themselves as recuair-<serial>.local.

With a serial argument, the scan waits for that specific unit and
returns as soon as it appears.`,
	Example: `  # Scan for 10 seconds (default)
  recuair-cli scan

  # Quick 3-second scan
  recuair-cli scan --timeout 3

  # Wait for one specific unit
  recuair-cli scan r2000-0451

  # Store discovered units in the device registry
  recuair-cli scan --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	scanCmd.Flags().BoolVar(&saveScan, "save", false, "Store discovered units in the device registry")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	if len(args) == 1 {
		return waitForSerial(scanner, args[0])
	}

	ui.PrintCommandHeader(
		"Unit Discovery",
		"recuair-cli scan",
		map[string]string{
			"Service": discovery.ServiceType,
			"Timeout": fmt.Sprintf("%ds", scanTimeout),
		},
	)

	units, err := scanner.ScanForUnits()
	if err != nil {
		ui.PrintFailure("Scan failed", err, []string{
			"Check that your network allows multicast DNS (UDP port 5353)",
			"Some WiFi access points block device-to-device traffic",
			"Address the unit directly by IP if discovery keeps failing",
		})
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(units) == 0 {
		fmt.Println("No units found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the unit is powered on and connected to WiFi")
		fmt.Println("  - Verify your computer is on the same network as the unit")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Address the unit directly by IP if discovery keeps failing")
		return nil
	}

	fmt.Printf("Found %d unit(s):\n\n", len(units))
	for i, unit := range units {
		fmt.Printf("%d. %s\n", i+1, unit.Hostname)
		fmt.Printf("   Serial:  %s\n", unit.Serial)
		fmt.Printf("   Address: %s\n", unit.Address())
		if len(unit.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", unit.Metadata)
		}
		fmt.Println()
	}

	if saveScan {
		if err := saveDiscovered(units); err != nil {
			return err
		}
	}

	fmt.Println("Use 'recuair-cli status <device>' to read a unit's state")
	return nil
}

func waitForSerial(scanner *discovery.Scanner, serial string) error {
	fmt.Printf("Waiting for unit %s (timeout: %ds)...\n\n", serial, scanTimeout)

	unit, err := scanner.WaitForUnit(serial)
	if err != nil {
		ui.PrintFailure("Unit not found", err, []string{
			"Check the serial number (printed on the unit's label)",
			"Ensure the unit is powered on and connected to WiFi",
			"Try a longer wait: --timeout 30",
		})
		return err
	}

	fmt.Println(unit.String())
	if saveScan {
		return saveDiscovered([]*discovery.Unit{unit})
	}
	return nil
}

// saveDiscovered stores discovered units in the device registry, keyed
// by serial.
func saveDiscovered(units []*discovery.Unit) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	for _, unit := range units {
		entry := reg.EnsureDevice(unit.Serial)
		entry.Serial = unit.Serial
		if unit.Port != 0 && unit.Port != discovery.DefaultPort {
			entry.Port = unit.Port
		}
		reg.UpdateDeviceLastSeen(unit.Serial, unit.IP)
	}

	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save device registry: %w", err)
	}

	details := map[string]string{
		"Saved": fmt.Sprintf("%d unit(s)", len(units)),
	}
	if path, err := config.GetConfigPath(); err == nil {
		details["File"] = path
	}
	ui.PrintSuccess("Registry updated", details)
	return nil
}

// watchCmd shows a live status screen
var watchCmd = &cobra.Command{
	Use:   "watch [device]",
	Short: "Watch a unit's status live",
	Long: `Show a live status screen for one unit, refreshed periodically.
When a refresh fails, the last known state stays on screen with an
error line above it.

Without a device argument, a discovery screen scans the network first
and the status screen opens for the unit you pick.

Press 'r' to refresh immediately, 'q' to leave.`,
	Example: `  # Watch with the default 5s refresh
  recuair-cli watch bedroom

  # Slower refresh
  recuair-cli watch --interval 30 bedroom

  # Discover units first, then watch the picked one
  recuair-cli watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 5, "Refresh interval in seconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	interval := time.Duration(watchInterval) * time.Second

	var model tea.Model
	if len(args) == 1 {
		label, client, err := deviceClientFor(reg, args[0])
		if err != nil {
			return err
		}
		model = watch.New(client, label, interval)
	} else {
		// No device given: discover one first.
		factory := func(address string) (watch.StatusFetcher, error) {
			_, client, err := deviceClientFor(reg, address)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
		model = watch.NewApp(factory, interval)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

// deviceOutcome is one device's result from a fan-out operation
type deviceOutcome struct {
	label string
	snap  *statuspage.Snapshot
	err   error
}

// forEachDevice runs op against every device in parallel and returns
// the outcomes in argument order. Workers never share state; each
// device gets its own client and session.
func forEachDevice(reg *config.Registry, queries []string, op func(ctx context.Context, client *device.Client) (*statuspage.Snapshot, error)) []deviceOutcome {
	ctx := context.Background()
	outcomes := make([]deviceOutcome, len(queries))

	var g errgroup.Group
	g.SetLimit(maxParallelDevices)
	for i, query := range queries {
		g.Go(func() error {
			label, client, err := deviceClientFor(reg, query)
			outcomes[i].label = label
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			snap, err := op(ctx, client)
			outcomes[i].snap = snap
			outcomes[i].err = err
			return nil
		})
	}
	// Workers never return errors; outcomes carry them per device.
	_ = g.Wait()
	return outcomes
}

// applyToDevices runs one control intent against every device and
// reports per-device results. The exit status is non-zero if any
// device failed.
func applyToDevices(cmd *cobra.Command, queries []string, intent device.Intent, verb string) error {
	cmd.SilenceUsage = true

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	outcomes := forEachDevice(reg, queries, func(ctx context.Context, client *device.Client) (*statuspage.Snapshot, error) {
		return client.ApplyControl(ctx, intent)
	})

	for _, outcome := range outcomes {
		switch {
		case outcome.err == nil:
			fmt.Printf("%s %s: %s\n", ui.SuccessMarker, outcome.label, verb)
			if outcome.snap != nil {
				fmt.Printf("  %s\n", device.Summary(outcome.snap))
			}
		case device.WasApplied(outcome.err):
			// The write was confirmed; only the read-back failed.
			fmt.Printf("%s %s: %s\n", ui.SuccessMarker, outcome.label, verb)
			fmt.Printf("  %s\n", device.GetShortErrorMessage(outcome.err))
		default:
			fmt.Printf("%s %s: %s\n", ui.FailureMarker, outcome.label, device.GetShortErrorMessage(outcome.err))
		}
	}

	return failuresError(outcomes)
}

// failuresError converts failed outcomes into the command's error.
// A confirmed write with a failed read-back counts as success.
func failuresError(outcomes []deviceOutcome) error {
	failed := 0
	var firstErr error
	for _, outcome := range outcomes {
		if outcome.err == nil || device.WasApplied(outcome.err) {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = outcome.err
		}
	}
	if failed == 0 {
		return nil
	}

	if len(outcomes) == 1 {
		// A single target gets the full troubleshooting hint.
		fmt.Println()
		fmt.Println(device.GetTroubleshootingHint(firstErr))
		return fmt.Errorf("%s: %s", outcomes[0].label, device.GetShortErrorMessage(firstErr))
	}
	return fmt.Errorf("%d of %d devices failed", failed, len(outcomes))
}

// loadRegistry loads the device registry and applies its preferences to
// flags the user did not set.
func loadRegistry(cmd *cobra.Command) (*config.Registry, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load device registry: %w", err)
	}
	applyPreferences(cmd, reg.Preferences)
	return reg, nil
}

// applyPreferences fills root flag values the user left at defaults
// from the registry preferences.
func applyPreferences(cmd *cobra.Command, prefs *config.Preferences) {
	if prefs == nil {
		return
	}
	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("timeout") && prefs.TimeoutSeconds > 0 {
		timeoutSeconds = prefs.TimeoutSeconds
	}
	if !flags.Changed("retries") && prefs.Retries > 0 {
		retryCount = prefs.Retries
	}
	if !flags.Changed("format") && prefs.DefaultFormat != "" {
		outputFormat = prefs.DefaultFormat
	}
}

// deviceClientFor resolves a device query (registry name or literal
// host) and builds a configured client for it.
func deviceClientFor(reg *config.Registry, query string) (string, *device.Client, error) {
	label := query
	address := query
	user := username

	if name, entry, ok := reg.Resolve(query); ok {
		label = name
		address = entry.Address()
		if user == "" {
			user = entry.Username
		}
		logging.Debug("resolved device from registry",
			zap.String("query", query),
			zap.String("name", name),
			zap.String("address", address))
	}

	client, err := device.NewClient(address)
	if err != nil {
		return label, nil, err
	}
	client.SetTimeout(time.Duration(timeoutSeconds) * time.Second)
	client.SetRetry(retryPolicy())
	if user != "" {
		client.SetAuth(user, devicePassword())
	}
	return label, client, nil
}

// retryPolicy builds the retry policy from the --retries flag
func retryPolicy() device.RetryPolicy {
	policy := device.DefaultRetryPolicy()
	if retryCount > 0 {
		policy.MaxAttempts = retryCount
	}
	return policy
}

// devicePassword returns the device password from the flag or the
// environment.
func devicePassword() string {
	if password != "" {
		return password
	}
	return os.Getenv(passwordEnvVar)
}
