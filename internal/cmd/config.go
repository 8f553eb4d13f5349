package cmd

import (
	"bytes"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/websvc"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// configuration is the structure of the configuration file.
type configuration struct {
	// HTTP is the configuration of the API listeners.
	HTTP *httpConfig `yaml:"http"`

	// Metrics is the configuration of the Prometheus listener.
	Metrics *metricsConfig `yaml:"metrics"`

	// Store is the configuration of the event store.
	Store *storeConfig `yaml:"store"`

	// Log is the configuration of the logger.
	Log *logConfig `yaml:"log"`

	// Auth is the configuration of the API authentication.
	Auth *authConfig `yaml:"auth"`

	// SettingsFile is the path to the key-value settings file.
	SettingsFile string `yaml:"settings_file"`

	// ListsDB is the path to the domain lists database.
	ListsDB string `yaml:"lists_db"`

	// MaxBodySize is the maximum size of API request bodies.
	MaxBodySize datasize.ByteSize `yaml:"max_body_size"`
}

// type check
var _ validate.Interface = (*configuration)(nil)

// Validate implements the [validate.Interface] interface for *configuration.
func (c *configuration) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotEmpty("settings_file", c.SettingsFile),
		validate.NotEmpty("lists_db", c.ListsDB),
	}

	errs = validate.Append(errs, "http", c.HTTP)
	errs = validate.Append(errs, "metrics", c.Metrics)
	errs = validate.Append(errs, "store", c.Store)
	errs = validate.Append(errs, "log", c.Log)
	errs = validate.Append(errs, "auth", c.Auth)

	return errors.Join(errs...)
}

// httpConfig is the configuration of the API listeners.
type httpConfig struct {
	// Addresses are the addresses to serve the API on.
	Addresses []netip.AddrPort `yaml:"addresses"`

	// Timeout is the timeout of reading requests and writing responses.
	Timeout timeutil.Duration `yaml:"timeout"`
}

// type check
var _ validate.Interface = (*httpConfig)(nil)

// Validate implements the [validate.Interface] interface for *httpConfig.
func (c *httpConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotEmptySlice("addresses", c.Addresses),
	}

	if time.Duration(c.Timeout) <= 0 {
		errs = append(errs, fmt.Errorf("timeout: %w: %s", errors.ErrNotPositive, c.Timeout))
	}

	for i, a := range c.Addresses {
		if !a.IsValid() {
			errs = append(errs, fmt.Errorf("addresses: at index %d: %w", i, errors.ErrNoValue))
		}
	}

	return errors.Join(errs...)
}

// metricsConfig is the configuration of the Prometheus listener.
type metricsConfig struct {
	// Address is the address to serve the metrics on.  If it is not set, the
	// metrics are not served.
	Address netip.AddrPort `yaml:"address"`
}

// type check
var _ validate.Interface = (*metricsConfig)(nil)

// Validate implements the [validate.Interface] interface for *metricsConfig.
// A nil *metricsConfig is valid and disables metrics.
func (c *metricsConfig) Validate() (err error) {
	return nil
}

// enabled returns true if the metrics should be served.
func (c *metricsConfig) enabled() (ok bool) {
	return c != nil && c.Address.IsValid()
}

// storeConfig is the configuration of the event store.
type storeConfig struct {
	// SlotWidth is the width of a single history slot.
	SlotWidth timeutil.Duration `yaml:"slot_width"`

	// RotateInterval is how often the slot ring is rotated when no queries
	// arrive.
	RotateInterval timeutil.Duration `yaml:"rotate_interval"`

	// SlotCount is the number of slots of the history.
	SlotCount int `yaml:"slot_count"`
}

// type check
var _ validate.Interface = (*storeConfig)(nil)

// Validate implements the [validate.Interface] interface for *storeConfig.
func (c *storeConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	var errs []error
	if time.Duration(c.RotateInterval) <= 0 {
		errs = append(errs, fmt.Errorf("rotate_interval: %w: %s", errors.ErrNotPositive, c.RotateInterval))
	}

	if c.SlotCount <= 0 {
		errs = append(errs, fmt.Errorf("slot_count: %w: %d", errors.ErrNotPositive, c.SlotCount))
	}

	if w := time.Duration(c.SlotWidth); w < time.Second || w%time.Second != 0 {
		errs = append(errs, fmt.Errorf("slot_width: %w: %s", errors.ErrOutOfRange, w))
	}

	return errors.Join(errs...)
}

// logConfig is the configuration of the logger.
type logConfig struct {
	// File is the path to the log file.  If it is empty, the logs are written
	// to stdout.
	File string `yaml:"file"`

	// MaxSize is the maximum size of the log file before it gets rotated, in
	// megabytes.
	MaxSize int `yaml:"max_size"`

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `yaml:"max_backups"`

	// MaxAge is the maximum duration for retaining old log files, in days.
	MaxAge int `yaml:"max_age"`

	// Compress enables compression of the rotated log files.
	Compress bool `yaml:"compress"`

	// LocalTime enables the local time in the names of the rotated log files.
	LocalTime bool `yaml:"local_time"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// type check
var _ validate.Interface = (*logConfig)(nil)

// Validate implements the [validate.Interface] interface for *logConfig.
func (c *logConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return errors.Join(
		validate.NotNegative("max_size", c.MaxSize),
		validate.NotNegative("max_backups", c.MaxBackups),
		validate.NotNegative("max_age", c.MaxAge),
	)
}

// authConfig is the configuration of the API authentication.
type authConfig struct {
	// PasswordHash is the bcrypt hash of the API password.
	PasswordHash string `yaml:"password_hash"`

	// CacheSize is the number of verified passwords to keep.
	CacheSize int `yaml:"cache_size"`

	// AllowLoopback authenticates all requests from loopback addresses.
	AllowLoopback bool `yaml:"allow_loopback"`
}

// type check
var _ validate.Interface = (*authConfig)(nil)

// Validate implements the [validate.Interface] interface for *authConfig.
func (c *authConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return c.toInternal().Validate()
}

// toInternal returns the web service authentication configuration.  c must be
// valid.
func (c *authConfig) toInternal() (conf *websvc.AuthConfig) {
	return &websvc.AuthConfig{
		PasswordHash:  c.PasswordHash,
		CacheSize:     c.CacheSize,
		AllowLoopback: c.AllowLoopback,
	}
}

// readConfig reads and validates the configuration file.
func readConfig(path string) (c *configuration, err error) {
	defer func() { err = errors.Annotate(err, "reading config %q: %w", path) }()

	data, err := os.ReadFile(path)
	if err != nil {
		// Don't wrap the error, since it's informative enough as is.
		return nil, err
	}

	return parseConfig(data)
}

// parseConfig decodes and validates the configuration.  Unknown fields are
// errors.
func parseConfig(data []byte) (c *configuration, err error) {
	c = &configuration{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	if c.MaxBodySize == 0 {
		c.MaxBodySize = websvc.DefaultMaxBodySize
	}

	err = c.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}

	return c, nil
}
