package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/beekhof/caldav-setup/internal/caldav"
	"github.com/beekhof/caldav-setup/internal/config"
	"github.com/beekhof/caldav-setup/internal/probe"
)

func printHelp() {
	fmt.Fprintf(os.Stderr, `CalDAV Setup Check

Finds the identifiers of an iCloud (or other CalDAV) account and checks that
calendars can be read and written, before they are configured in an n8n
workflow.

USAGE:
    %s [OPTIONS] COMMAND

COMMANDS:
    user-id      Step 1: discover your USER_ID (numeric account ID)
    calendars    Step 2: list your calendars and their CALENDAR_IDs
    discover     Steps 1 and 2 in one go
    read         Step 3: read today's and tomorrow's events from CALENDAR_ID
    write        Step 4: create a test event in CALENDAR_ID
    test-all     Create a test event in every calendar listed in "calendars"
                 to find the writable ones

OPTIONS:
    -h, --help                    Show this help message and exit
    -v, --verbose                 Enable verbose output (show DEBUG logs)
    --config FILE                 Path to a JSON, TOML or YAML config file (optional)
    --server-url URL              CalDAV server URL (default: https://caldav.icloud.com)
    --email EMAIL                 Apple ID email
    --password PASSWORD           App-specific password (NOT your Apple ID password)
    --user-id ID                  USER_ID from the user-id command
    --calendar-id ID              CALENDAR_ID from the calendars command
    --calendars IDS               Comma-separated CALENDAR_IDs for test-all

CONFIGURATION PRECEDENCE (highest to lowest):
    1. Command-line flags
    2. Environment variables
    3. Config file (--config)
    4. Defaults

CONFIG FILE:
    Example (JSON):
    {
      "server_url": "https://caldav.icloud.com",
      "email": "your-email@icloud.com",
      "password": "xxxx-xxxx-xxxx-xxxx",
      "user_id": "1234567890",
      "calendar_id": "ABCDEF01-2345-6789-ABCD-EF0123456789",
      "calendars": ["CALENDAR_ID_1", "CALENDAR_ID_2"],
      "timeout_seconds": 30
    }

    Generate an app-specific password at: https://appleid.apple.com/account/manage

ENVIRONMENT VARIABLES:
        CALDAV_SERVER_URL         CalDAV server URL
        CALDAV_EMAIL              Apple ID email
        CALDAV_PASSWORD           App-specific password
        CALDAV_USER_ID            USER_ID
        CALDAV_CALENDAR_ID        CALENDAR_ID
        CALDAV_CALENDARS          Comma-separated CALENDAR_IDs for test-all
        CALDAV_TIMEOUT_SECONDS    HTTP timeout per request (default: 30)

NOTES:
    The write and test-all commands create real events named "... - DELETE ME".
    Delete them from your calendar afterwards.

EXAMPLES:
    # Step 1
    %s --email me@icloud.com --password xxxx-xxxx-xxxx-xxxx user-id

    # Step 2 with a config file
    %s --config config.json calendars

    # Steps 3 and 4
    %s --config config.json read
    %s --config config.json write

    # Show help
    %s --help

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	// Parse command-line flags
	helpFlag := flag.Bool("help", false, "Show help message")
	helpFlagShort := flag.Bool("h", false, "Show help message (shorthand)")
	verboseFlag := flag.Bool("verbose", false, "Enable verbose output (show DEBUG logs)")
	verboseFlagShort := flag.Bool("v", false, "Enable verbose output (shorthand)")
	configFile := flag.String("config", "", "Path to JSON, TOML or YAML config file (optional)")
	serverURL := flag.String("server-url", "", "CalDAV server URL (overrides config file and CALDAV_SERVER_URL env var)")
	email := flag.String("email", "", "Apple ID email (overrides config file and CALDAV_EMAIL env var)")
	password := flag.String("password", "", "App-specific password (overrides config file and CALDAV_PASSWORD env var)")
	userID := flag.String("user-id", "", "USER_ID (overrides config file and CALDAV_USER_ID env var)")
	calendarID := flag.String("calendar-id", "", "CALENDAR_ID (overrides config file and CALDAV_CALENDAR_ID env var)")
	calendars := flag.String("calendars", "", "Comma-separated CALENDAR_IDs for test-all (overrides config file and CALDAV_CALENDARS env var)")
	flag.Usage = printHelp
	flag.Parse()

	// Set up logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	verbose := *verboseFlag || *verboseFlagShort

	// Show help if requested
	if *helpFlag || *helpFlagShort {
		printHelp()
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one COMMAND is required. Use --help for more information.")
	}
	command := flag.Arg(0)

	cfg, err := config.LoadConfig(*configFile, *serverURL, *email, *password, *userID, *calendarID, *calendars)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reporter := probe.NewReporter(os.Stdout)
	if err := requirementFor(command, cfg); err != nil {
		reporter.ReportNotConfigured(err)
		os.Exit(1)
	}

	client, err := caldav.NewClient(cfg.ServerURL, cfg.Email, cfg.Password, cfg.Timeout())
	if err != nil {
		log.Fatalf("Failed to create CalDAV client: %v", err)
	}
	client.SetVerbose(verbose)

	ctx := context.Background()
	if !run(ctx, command, cfg, probe.NewProber(client, verbose), reporter) {
		os.Exit(1)
	}
}

// requirementFor checks the config values command needs before any request
// is made.
func requirementFor(command string, cfg *config.Config) error {
	switch command {
	case "user-id", "discover":
		return cfg.RequireCredentials()
	case "calendars":
		return cfg.RequireUserID()
	case "read", "write":
		return cfg.RequireCalendarID()
	case "test-all":
		return cfg.RequireCalendars()
	default:
		return fmt.Errorf("unknown command %q, use --help for the list of commands", command)
	}
}

// run executes command and reports whether it succeeded.
func run(ctx context.Context, command string, cfg *config.Config, prober *probe.Prober, reporter *probe.Reporter) bool {
	switch command {
	case "user-id":
		res, err := prober.DiscoverAccount(ctx)
		reporter.ReportAccount(cfg.Email, res, err)
		return err == nil && res.AccountID != ""

	case "calendars":
		res, err := prober.ListCalendars(ctx, cfg.UserID)
		reporter.ReportCalendars(cfg.UserID, res, err)
		return err == nil && len(res.Calendars) > 0

	case "discover":
		res, err := prober.Discover(ctx)
		reporter.ReportDiscovery(cfg.Email, res, err)
		return err == nil && len(res.Listing.Calendars) > 0

	case "read":
		res, err := prober.ReadEvents(ctx, cfg.UserID, cfg.CalendarID, time.Now())
		reporter.ReportRead(cfg.CalendarID, res, err)
		return err == nil

	case "write":
		res, err := prober.WriteTestEvent(ctx, cfg.UserID, cfg.CalendarID)
		reporter.ReportWrite(cfg.CalendarID, res, err)
		return err == nil

	case "test-all":
		results := prober.TestAllCalendars(ctx, cfg.UserID, cfg.Calendars)
		reporter.ReportTestAll(results)
		for _, r := range results {
			if r.Writable {
				return true
			}
		}
		return false
	}

	return false
}
