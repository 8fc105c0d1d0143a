package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL      = "https://caldav.icloud.com"
	DefaultTimeoutSeconds = 30
)

// ErrNotConfigured is returned when a required value is missing or still
// holds the placeholder from the example config.
var ErrNotConfigured = errors.New("not configured")

// Config holds the account settings shared by all checks.
type Config struct {
	ServerURL  string `json:"server_url,omitempty" toml:"server_url" yaml:"server_url"` // CalDAV server URL (e.g., "https://caldav.icloud.com")
	Email      string `json:"email,omitempty" toml:"email" yaml:"email"`                // Apple ID email
	Password   string `json:"password,omitempty" toml:"password" yaml:"password"`       // App-specific password
	UserID     string `json:"user_id,omitempty" toml:"user_id" yaml:"user_id"`          // Numeric principal ID, from the user-id check
	CalendarID string `json:"calendar_id,omitempty" toml:"calendar_id" yaml:"calendar_id"`

	// Calendars checked by test-all
	Calendars []string `json:"calendars,omitempty" toml:"calendars" yaml:"calendars"`

	TimeoutSeconds int `json:"timeout_seconds,omitempty" toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfigFromFile loads configuration from a JSON, TOML or YAML file,
// chosen by extension. Unknown extensions are read as JSON.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadConfig loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file
// 4. Defaults
// Whether a value is required depends on the check being run, see the
// Require* methods.
func LoadConfig(configFile string, serverURLFlag, emailFlag, passwordFlag, userIDFlag, calendarIDFlag, calendarsFlag string) (*Config, error) {
	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	if serverURL := os.Getenv("CALDAV_SERVER_URL"); serverURL != "" {
		config.ServerURL = serverURL
	}
	if email := os.Getenv("CALDAV_EMAIL"); email != "" {
		config.Email = email
	}
	if password := os.Getenv("CALDAV_PASSWORD"); password != "" {
		config.Password = password
	}
	if userID := os.Getenv("CALDAV_USER_ID"); userID != "" {
		config.UserID = userID
	}
	if calendarID := os.Getenv("CALDAV_CALENDAR_ID"); calendarID != "" {
		config.CalendarID = calendarID
	}
	if calendars := os.Getenv("CALDAV_CALENDARS"); calendars != "" {
		config.Calendars = splitList(calendars)
	}
	if timeout := os.Getenv("CALDAV_TIMEOUT_SECONDS"); timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid CALDAV_TIMEOUT_SECONDS value: %w", err)
		}
		config.TimeoutSeconds = seconds
	}

	// Step 3: Override with command-line flags (highest priority)
	if serverURLFlag != "" {
		config.ServerURL = serverURLFlag
	}
	if emailFlag != "" {
		config.Email = emailFlag
	}
	if passwordFlag != "" {
		config.Password = passwordFlag
	}
	if userIDFlag != "" {
		config.UserID = userIDFlag
	}
	if calendarIDFlag != "" {
		config.CalendarID = calendarIDFlag
	}
	if calendarsFlag != "" {
		config.Calendars = splitList(calendarsFlag)
	}

	// Step 4: Apply defaults
	if config.ServerURL == "" {
		config.ServerURL = DefaultServerURL
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if config.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("timeout_seconds must not be negative, got %d", config.TimeoutSeconds)
	}

	return &config, nil
}

// RequireCredentials checks that email and password are set and are not the
// example placeholders.
func (c *Config) RequireCredentials() error {
	if c.Email == "" || strings.Contains(c.Email, "YOUR_") {
		return fmt.Errorf("%w: email must be set via --email, CALDAV_EMAIL or config file", ErrNotConfigured)
	}
	if c.Password == "" || strings.Contains(c.Password, "xxxx") {
		return fmt.Errorf("%w: password must be an app-specific password set via --password, CALDAV_PASSWORD or config file", ErrNotConfigured)
	}
	return nil
}

// RequireUserID checks the credentials and the account's user ID.
func (c *Config) RequireUserID() error {
	if err := c.RequireCredentials(); err != nil {
		return err
	}
	if c.UserID == "" || strings.Contains(c.UserID, "YOUR_") {
		return fmt.Errorf("%w: user_id must be set via --user-id, CALDAV_USER_ID or config file (run the user-id check first)", ErrNotConfigured)
	}
	return nil
}

// RequireCalendarID checks the credentials, user ID and calendar ID.
func (c *Config) RequireCalendarID() error {
	if err := c.RequireUserID(); err != nil {
		return err
	}
	if c.CalendarID == "" || strings.Contains(c.CalendarID, "YOUR_") {
		return fmt.Errorf("%w: calendar_id must be set via --calendar-id, CALDAV_CALENDAR_ID or config file (run the calendars check first)", ErrNotConfigured)
	}
	return nil
}

// RequireCalendars checks the credentials, user ID and the calendar list used
// by test-all.
func (c *Config) RequireCalendars() error {
	if err := c.RequireUserID(); err != nil {
		return err
	}
	if len(c.Calendars) == 0 || c.Calendars[0] == "CALENDAR_ID_1" {
		return fmt.Errorf("%w: calendars must list the calendar IDs to test via --calendars, CALDAV_CALENDARS or config file", ErrNotConfigured)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
