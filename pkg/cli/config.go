/*
Package cli loads the agent's configuration. A [Config] is read by [Load] from an optional
configuration file and from environment variables, which take precedence over the file.

The package uses [keyring]'s platform-agnostic interface to keep the OAuth refresh token in an
OS-dependent credential store, so that it need not appear in a configuration file or the
environment, and so that rotated tokens survive a restart.

# Examples

	config, err := cli.Load("") // Searches ./config.*, ~/.tesla-climate and /etc/tesla-climate
	if err != nil {
		panic(err)
	}
	config.LoadCredentials() // Prompt for Keyring password if needed
	if err := config.Validate(); err != nil {
		panic(err)
	}
	at, days, err := config.Schedule()

A minimal config.yaml:

	vehicle_id: "1492931"
	start_time: "07:55"
	days: [mon, tue, wed, thu, fri]
	keyring:
	  token_name: me@example.com
*/
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"github.com/google/shlex"
	"github.com/spf13/viper"

	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/internal/scheduler"
	"github.com/teslamotors/climate-agent/pkg/account"
	"github.com/teslamotors/climate-agent/pkg/climate"
	"github.com/teslamotors/climate-agent/pkg/oauth"
)

// Environment variable names used by [Load]. Each one overrides the corresponding configuration key.
const (
	EnvTeslaHVACConfig           = "TESLA_HVAC_CONFIG"
	EnvTeslaClientID             = "TESLA_CLIENT_ID"
	EnvTeslaRefreshToken         = "TESLA_REFRESH_TOKEN"
	EnvTeslaVehicleID            = "TESLA_VEHICLE_ID"
	EnvTeslaHVACStartTime        = "TESLA_HVAC_START_TIME"
	EnvTeslaHVACCheckDelay       = "TESLA_HVAC_CHECK_DELAY"
	EnvTeslaHVACTargetTemp       = "TESLA_HVAC_TARGET_TEMP"
	EnvTeslaHVACOutdoorThreshold = "TESLA_HVAC_OUTDOOR_THRESHOLD"
	EnvTeslaHVACIndoorThreshold  = "TESLA_HVAC_INDOOR_THRESHOLD"
	EnvTeslaHVACDays             = "TESLA_HVAC_DAYS"
	EnvTeslaHVACLogFile          = "TESLA_HVAC_LOG_FILE"
	EnvTeslaHVACLogLevel         = "TESLA_HVAC_LOG_LEVEL"
	EnvTeslaAuthURL              = "TESLA_AUTH_URL"
	EnvTeslaAPIURL               = "TESLA_API_URL"
	EnvTeslaTokenName            = "TESLA_TOKEN_NAME"
	EnvTeslaKeyringType          = "TESLA_KEYRING_TYPE"
	EnvTeslaKeyringPass          = "TESLA_KEYRING_PASSWORD"
	EnvTeslaKeyringPath          = "TESLA_KEYRING_PATH"
	EnvTeslaKeyringDebug         = "TESLA_KEYRING_DEBUG"
)

// Configuration keys.
const (
	keyClientID         = "client_id"
	keyRefreshToken     = "refresh_token"
	keyVehicleID        = "vehicle_id"
	keyStartTime        = "start_time"
	keyCheckDelay       = "check_delay"
	keyTargetTemp       = "target_temp"
	keyOutdoorThreshold = "outdoor_temp_threshold"
	keyIndoorThreshold  = "indoor_temp_threshold"
	keyDays             = "days"
	keyLogFile          = "log_file"
	keyLogLevel         = "log_level"
	keyAuthURL          = "auth_url"
	keyAPIURL           = "api_url"
	keyTokenName        = "keyring.token_name"
	keyKeyringType      = "keyring.type"
	keyKeyringPath      = "keyring.path"
	keyKeyringDebug     = "keyring.debug"
)

var envBindings = map[string]string{
	keyClientID:         EnvTeslaClientID,
	keyRefreshToken:     EnvTeslaRefreshToken,
	keyVehicleID:        EnvTeslaVehicleID,
	keyStartTime:        EnvTeslaHVACStartTime,
	keyCheckDelay:       EnvTeslaHVACCheckDelay,
	keyTargetTemp:       EnvTeslaHVACTargetTemp,
	keyOutdoorThreshold: EnvTeslaHVACOutdoorThreshold,
	keyIndoorThreshold:  EnvTeslaHVACIndoorThreshold,
	keyDays:             EnvTeslaHVACDays,
	keyLogFile:          EnvTeslaHVACLogFile,
	keyLogLevel:         EnvTeslaHVACLogLevel,
	keyAuthURL:          EnvTeslaAuthURL,
	keyAPIURL:           EnvTeslaAPIURL,
	keyTokenName:        EnvTeslaTokenName,
	keyKeyringType:      EnvTeslaKeyringType,
	keyKeyringPath:      EnvTeslaKeyringPath,
	keyKeyringDebug:     EnvTeslaKeyringDebug,
}

// Defaults applied when neither the configuration file nor the environment sets a key.
const (
	DefaultStartTime        = "07:55"
	DefaultCheckDelay       = 30 * time.Minute
	DefaultTargetTemp       = 18.0
	DefaultOutdoorThreshold = 4.0
	DefaultIndoorThreshold  = 25.0
	DefaultLogFile          = "tesla_hvac.log"
	DefaultLogLevel         = "info"
)

var configPaths = []string{".", "$HOME/.tesla-climate", "/etc/tesla-climate"}

var (
	ErrNoVehicleID    = errors.New("vehicle id not provided")
	ErrNoRefreshToken = errors.New("refresh token not provided (set refresh_token or keyring.token_name)")
	ErrKeyNotFound    = keyring.ErrKeyNotFound
)

// Config holds everything the agent needs to authenticate, reach the vehicle and decide when to
// condition the cabin.
type Config struct {
	ClientID     string
	RefreshToken string
	VehicleID    string
	AuthURL      string
	APIURL       string

	StartTime        string
	Days             []time.Weekday
	CheckDelay       time.Duration
	TargetTemp       float64 // Celsius
	OutdoorThreshold float64 // Celsius
	IndoorThreshold  float64 // Celsius

	LogFile  string
	LogLevel string

	KeyringTokenName string // Username for the refresh token in system keyring
	Backend          keyring.Config
	BackendType      backendType
	Debug            bool // Enable keyring debug messages

	// OpenKeyring opens the credential store. Defaults to keyring.Open.
	OpenKeyring func(keyring.Config) (keyring.Keyring, error)

	password *string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	c := Config{
		ClientID:         oauth.DefaultClientID,
		AuthURL:          oauth.DefaultURL,
		APIURL:           account.DefaultBaseURL,
		StartTime:        DefaultStartTime,
		Days:             allDays(),
		CheckDelay:       DefaultCheckDelay,
		TargetTemp:       DefaultTargetTemp,
		OutdoorThreshold: DefaultOutdoorThreshold,
		IndoorThreshold:  DefaultIndoorThreshold,
		LogFile:          DefaultLogFile,
		LogLevel:         DefaultLogLevel,
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
			FileDir:                  keyringDirectory,
		},
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword
	return &c
}

func newViper(c *Config) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(keyClientID, c.ClientID)
	v.SetDefault(keyAuthURL, c.AuthURL)
	v.SetDefault(keyAPIURL, c.APIURL)
	v.SetDefault(keyStartTime, c.StartTime)
	v.SetDefault(keyDays, []int{0, 1, 2, 3, 4, 5, 6})
	v.SetDefault(keyCheckDelay, int(c.CheckDelay/time.Second))
	v.SetDefault(keyTargetTemp, c.TargetTemp)
	v.SetDefault(keyOutdoorThreshold, c.OutdoorThreshold)
	v.SetDefault(keyIndoorThreshold, c.IndoorThreshold)
	v.SetDefault(keyLogFile, c.LogFile)
	v.SetDefault(keyLogLevel, c.LogLevel)
	v.SetDefault(keyKeyringPath, c.Backend.FileDir)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads configuration from path and the environment. If path is empty, $TESLA_HVAC_CONFIG is
// used; if that is also empty, a file named config.{yaml,toml,json,...} is searched for in the
// current directory, ~/.tesla-climate and /etc/tesla-climate. A missing file is not an error
// unless it was named explicitly.
func Load(path string) (*Config, error) {
	c := NewConfig()
	v, err := newViper(c)
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(EnvTeslaHVACConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
		log.Debug("No configuration file found; using environment and defaults")
	} else {
		log.Debug("Loaded configuration from %s", v.ConfigFileUsed())
	}

	if err := c.decode(v); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(v *viper.Viper) error {
	c.ClientID = v.GetString(keyClientID)
	c.RefreshToken = strings.TrimSpace(v.GetString(keyRefreshToken))
	c.VehicleID = v.GetString(keyVehicleID)
	c.AuthURL = v.GetString(keyAuthURL)
	c.APIURL = v.GetString(keyAPIURL)
	c.StartTime = v.GetString(keyStartTime)
	c.TargetTemp = v.GetFloat64(keyTargetTemp)
	c.OutdoorThreshold = v.GetFloat64(keyOutdoorThreshold)
	c.IndoorThreshold = v.GetFloat64(keyIndoorThreshold)
	c.LogFile = v.GetString(keyLogFile)
	c.LogLevel = v.GetString(keyLogLevel)
	c.KeyringTokenName = v.GetString(keyTokenName)
	c.Backend.FileDir = v.GetString(keyKeyringPath)
	c.Debug = v.GetBool(keyKeyringDebug)

	if err := c.BackendType.Set(v.GetString(keyKeyringType)); err != nil {
		return err
	}
	if password, ok := os.LookupEnv(EnvTeslaKeyringPass); ok {
		c.password = &password
	}

	var err error
	if c.CheckDelay, err = ParseDelay(v.GetString(keyCheckDelay)); err != nil {
		return err
	}

	var tokens []string
	switch raw := v.Get(keyDays).(type) {
	case string:
		tokens = []string{raw}
	case int, int64, float64:
		tokens = []string{fmt.Sprint(raw)}
	default:
		tokens = v.GetStringSlice(keyDays)
	}
	if c.Days, err = ParseDays(tokens...); err != nil {
		return err
	}
	return nil
}

// ParseDelay parses a check delay given either as a number of seconds or as a Go duration
// string such as "30m".
func ParseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid check delay '%s'", s)
	}
	return d, nil
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func allDays() []time.Weekday {
	return append([]time.Weekday(nil), weekdays...)
}

// ParseDay converts a day index (0 = Monday through 6 = Sunday) or an English day name, full or
// abbreviated to three letters, to a time.Weekday.
func ParseDay(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(weekdays) {
			return 0, fmt.Errorf("day index %d out of range (0 = Monday through 6 = Sunday)", n)
		}
		return weekdays[n], nil
	}
	for _, d := range weekdays {
		name := strings.ToLower(d.String())
		if len(s) >= 3 && strings.HasPrefix(name, s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day '%s'", s)
}

// ParseDays parses a list of days. Each token may itself contain several days separated by
// whitespace or commas, e.g. "0 1 2" or "mon,wed,fri".
func ParseDays(tokens ...string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, token := range tokens {
		words, err := shlex.Split(strings.ReplaceAll(token, ",", " "))
		if err != nil {
			return nil, fmt.Errorf("invalid day list '%s': %w", token, err)
		}
		for _, word := range words {
			d, err := ParseDay(word)
			if err != nil {
				return nil, err
			}
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	return days, nil
}

// LoadCredentials fills in a missing refresh token from the system keyring, prompting for a
// keyring password if needed. It does nothing if a refresh token is already set or no keyring
// entry is configured.
func (c *Config) LoadCredentials() error {
	if c.RefreshToken != "" || c.KeyringTokenName == "" {
		return nil
	}
	token, err := c.LoadTokenFromKeyring()
	if err != nil {
		return err
	}
	c.RefreshToken = token
	return nil
}

// Validate checks that c is complete and well-formed.
func (c *Config) Validate() error {
	var errs []error
	if c.VehicleID == "" {
		errs = append(errs, ErrNoVehicleID)
	}
	if c.RefreshToken == "" {
		errs = append(errs, ErrNoRefreshToken)
	}
	if _, err := scheduler.ParseTimeOfDay(c.StartTime); err != nil {
		errs = append(errs, err)
	}
	if c.CheckDelay <= 0 {
		errs = append(errs, fmt.Errorf("check delay must be positive, got %s", c.CheckDelay))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Schedule returns the daily start time and the set of active days.
func (c *Config) Schedule() (scheduler.TimeOfDay, scheduler.DaySet, error) {
	at, err := scheduler.ParseTimeOfDay(c.StartTime)
	if err != nil {
		return scheduler.TimeOfDay{}, nil, err
	}
	return at, scheduler.NewDaySet(c.Days...), nil
}

// Settings returns the decision and shutdown settings for a climate.Controller.
func (c *Config) Settings() climate.Settings {
	return climate.Settings{
		TargetTemp: c.TargetTemp,
		CheckDelay: c.CheckDelay,
		Thresholds: climate.Thresholds{
			Outdoor: c.OutdoorThreshold,
			Indoor:  c.IndoorThreshold,
		},
	}
}

// UsesKeyring returns true if the refresh token is kept in the system keyring.
func (c *Config) UsesKeyring() bool {
	return c.KeyringTokenName != ""
}
