package config

import (
	"errors"
	"fmt"
	"time"

	devenv "analytics-export/dev/env"
	"analytics-export/lib/configutil"
	"analytics-export/lib/telemetry"
)

const (
	AuthInteractive    = "interactive"
	AuthCached         = "cached"
	AuthServiceAccount = "service_account"

	StampQuery = "query"
	StampRun   = "run"

	ExitStageCodes = "stage_codes"
	ExitAlwaysZero = "always_zero"

	DriverSqlite   = "sqlite"
	DriverLibsql   = "libsql"
	DriverMysql    = "mysql"
	DriverPostgres = "postgres"
)

type AuthConfig struct {
	// one of interactive, cached, service_account
	Mode           string   `json:"mode"`
	TokenCachePath string   `json:"token_cache_path"`
	ConsentTimeout Duration `json:"consent_timeout"`
	// when false the consent url is only printed
	OpenBrowser *bool `json:"open_browser"`
}

type ApiConfig struct {
	BaseUrl string   `json:"base_url"`
	Timeout Duration `json:"timeout"`
}

type StoreConfig struct {
	Driver string `json:"driver"`
	// a file path for sqlite, a libsql:// url for libsql, a DSN for mysql/postgres
	Path      string `json:"path"`
	AuthToken string `json:"auth_token"`
	Table     string `json:"table"`
}

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

type NotifyConfig struct {
	Smtp SmtpConfig `json:"smtp"`
}

func (c NotifyConfig) Enabled() bool {
	return c.Smtp.Server != "" && len(c.Smtp.To) > 0
}

type Config struct {
	CredentialPath string      `json:"credential_path"`
	PropertyId     string      `json:"property_id"`
	OutputCsvPath  string      `json:"output_csv_path"`
	Store          StoreConfig `json:"store"`

	Auth AuthConfig `json:"auth"`
	Api  ApiConfig  `json:"api"`
	// IANA zone used to decide what "yesterday" is, empty means local time
	Timezone   string `json:"timezone"`
	DateStamp  string `json:"date_stamp"`
	ExitPolicy string `json:"exit_policy"`

	Notify    NotifyConfig     `json:"notify"`
	Telemetry telemetry.Config `json:"telemetry"`
}

var (
	defaultApiBaseUrl     = "https://analyticsdata.googleapis.com/v1beta"
	defaultApiTimeout     = Duration(time.Second * 30)
	defaultConsentTimeout = Duration(time.Minute * 5)
	defaultTable          = "analytics_table"
	defaultCsvPath        = "analytics_data.csv"
)

// Load reads the config (merging <name>.local.<ext> overrides), fills in defaults and validates it.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills in defaults, resolves <dev_state> paths and rejects
// configs missing required fields.
func (c *Config) Validate() error {
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthInteractive
	}
	if c.Auth.ConsentTimeout == 0 {
		c.Auth.ConsentTimeout = defaultConsentTimeout
	}
	if c.Auth.OpenBrowser == nil {
		openBrowser := true
		c.Auth.OpenBrowser = &openBrowser
	}
	if c.Api.BaseUrl == "" {
		c.Api.BaseUrl = defaultApiBaseUrl
	}
	if c.Api.Timeout == 0 {
		c.Api.Timeout = defaultApiTimeout
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSqlite
	}
	if c.Store.Table == "" {
		c.Store.Table = defaultTable
	}
	if c.OutputCsvPath == "" {
		c.OutputCsvPath = defaultCsvPath
	}
	if c.DateStamp == "" {
		c.DateStamp = StampQuery
	}
	if c.ExitPolicy == "" {
		c.ExitPolicy = ExitStageCodes
	}

	errlist := []error{}
	if c.CredentialPath == "" {
		errlist = append(errlist, errors.New("credential_path is required"))
	}
	if c.PropertyId == "" {
		errlist = append(errlist, errors.New("property_id is required"))
	}
	if c.Store.Path == "" {
		errlist = append(errlist, errors.New("store.path is required"))
	}
	if !isOneOf(c.Auth.Mode, AuthInteractive, AuthCached, AuthServiceAccount) {
		errlist = append(errlist, fmt.Errorf("unknown auth.mode '%s'", c.Auth.Mode))
	}
	if c.Auth.Mode == AuthCached && c.Auth.TokenCachePath == "" {
		errlist = append(errlist, errors.New("auth.token_cache_path is required when auth.mode is cached"))
	}
	if !isOneOf(c.Store.Driver, DriverSqlite, DriverLibsql, DriverMysql, DriverPostgres) {
		errlist = append(errlist, fmt.Errorf("unknown store.driver '%s'", c.Store.Driver))
	}
	if !isOneOf(c.DateStamp, StampQuery, StampRun) {
		errlist = append(errlist, fmt.Errorf("unknown date_stamp '%s'", c.DateStamp))
	}
	if !isOneOf(c.ExitPolicy, ExitStageCodes, ExitAlwaysZero) {
		errlist = append(errlist, fmt.Errorf("unknown exit_policy '%s'", c.ExitPolicy))
	}
	if len(errlist) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errlist...))
	}

	var err error
	c.CredentialPath, err = devenv.ResolvePath(c.CredentialPath)
	if err != nil {
		return err
	}
	c.OutputCsvPath, err = devenv.ResolvePath(c.OutputCsvPath)
	if err != nil {
		return err
	}
	c.Auth.TokenCachePath, err = devenv.ResolvePath(c.Auth.TokenCachePath)
	if err != nil {
		return err
	}
	if c.Store.Driver == DriverSqlite {
		c.Store.Path, err = devenv.ResolvePath(c.Store.Path)
		if err != nil {
			return err
		}
	}

	return nil
}

func isOneOf(value string, options ...string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}
