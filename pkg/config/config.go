package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/gatezh/contactform/pkg/contact"
)

const (
	SinkAuto     = "auto"
	SinkEmail    = "email"
	SinkAirtable = "airtable"
)

const (
	defaultPort               = "8080"
	defaultConnectingIPHeader = "CF-Connecting-IP"
	defaultUpstreamTimeout    = 10 * time.Second
	defaultMaxBodyBytes       = 64 << 10
)

type Config struct {
	Port              string
	AllowedOrigins    []string
	AllowLocalOrigins bool
	Sink              string

	// Email (Resend)
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string
	FromName     string
	SiteName     string

	// Airtable
	AirtableAPIKey string
	AirtableBaseID string
	AirtableTable  string

	// Turnstile
	TurnstileSecret    string
	CaptchaRequired    bool
	ConnectingIPHeader string

	UpstreamTimeout time.Duration
	MaxBodyBytes    int64

	Pipeline *contact.Pipeline
	Logger   *slog.Logger
}

// fileConfig is the optional YAML config file. Every key mirrors an
// environment variable and loses to it.
type fileConfig struct {
	Port              string   `yaml:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	AllowLocalOrigins *bool    `yaml:"allow_local_origins"`
	Sink              string   `yaml:"sink"`
	ResendAPIKey      string   `yaml:"resend_api_key"`
	EmailFrom         string   `yaml:"contact_email_from"`
	EmailTo           string   `yaml:"contact_email_to"`
	FromName          string   `yaml:"contact_from_name"`
	SiteName          string   `yaml:"site_name"`
	AirtableAPIKey    string   `yaml:"airtable_api_key"`
	AirtableBaseID    string   `yaml:"airtable_base_id"`
	AirtableTable     string   `yaml:"airtable_table_name"`
	TurnstileSecret   string   `yaml:"turnstile_secret_key"`
	CaptchaRequired   *bool    `yaml:"captcha_required"`
	ConnectingIP      string   `yaml:"connecting_ip_header"`
	UpstreamTimeout   string   `yaml:"upstream_timeout"`
	MaxBodyBytes      int64    `yaml:"max_body_bytes"`
	LogLevel          string   `yaml:"log_level"`
}

// InitConfig loads .env, then builds the config from command-line flags,
// the environment and an optional YAML file.
func InitConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Load(os.Args[1:], os.Getenv, os.Stdout)
}

// Load parses args and reads the environment through getenv. Precedence is
// flag > env > file > default. Logs go to logOut.
func Load(args []string, getenv func(string) string, logOut io.Writer) (*Config, error) {
	fset := flag.NewFlagSet("contactform", flag.ContinueOnError)
	port := fset.String("port", "", "port to listen on")
	sink := fset.String("sink", "", "primary sink: email, airtable or auto")
	upstreamTimeout := fset.Duration("upstream-timeout", 0, "timeout for each outbound call (e.g. 5s)")
	configFile := fset.String("config", "", "path to a YAML config file")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	path := *configFile
	if path == "" {
		path = getenv("CONFIG_FILE")
	}
	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	str := func(flagVal, env, fileVal, def string) string {
		if flagVal != "" {
			return flagVal
		}
		if v := getenv(env); v != "" {
			return v
		}
		if fileVal != "" {
			return fileVal
		}
		return def
	}

	level := slog.LevelInfo
	if v := str("", "LOG_LEVEL", file.LogLevel, ""); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))

	cfg := &Config{
		Port:               str(*port, "PORT", file.Port, defaultPort),
		ResendAPIKey:       str("", "RESEND_API_KEY", file.ResendAPIKey, ""),
		EmailFrom:          str("", "CONTACT_EMAIL_FROM", file.EmailFrom, ""),
		EmailTo:            str("", "CONTACT_EMAIL_TO", file.EmailTo, ""),
		FromName:           str("", "CONTACT_FROM_NAME", file.FromName, ""),
		SiteName:           str("", "SITE_NAME", file.SiteName, ""),
		AirtableAPIKey:     str("", "AIRTABLE_API_KEY", file.AirtableAPIKey, ""),
		AirtableBaseID:     str("", "AIRTABLE_BASE_ID", file.AirtableBaseID, ""),
		AirtableTable:      str("", "AIRTABLE_TABLE_NAME", file.AirtableTable, ""),
		TurnstileSecret:    str("", "TURNSTILE_SECRET_KEY", file.TurnstileSecret, ""),
		ConnectingIPHeader: str("", "CONNECTING_IP_HEADER", file.ConnectingIP, defaultConnectingIPHeader),
		Logger:             logger,
	}

	// CORS
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	} else {
		cfg.AllowedOrigins = file.AllowedOrigins
	}
	allowLocal, err := boolSetting(getenv("ALLOW_LOCAL_ORIGINS"), file.AllowLocalOrigins, true)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_LOCAL_ORIGINS: %w", err)
	}
	cfg.AllowLocalOrigins = allowLocal

	// Sink
	cfg.Sink = strings.ToLower(str(*sink, "SINK", file.Sink, SinkAuto))
	switch cfg.Sink {
	case SinkEmail, SinkAirtable:
	case SinkAuto:
		cfg.Sink = SinkEmail
		if cfg.AirtableAPIKey != "" || cfg.AirtableBaseID != "" || cfg.AirtableTable != "" {
			cfg.Sink = SinkAirtable
		}
	default:
		return nil, fmt.Errorf("invalid SINK %q: must be email, airtable or auto", cfg.Sink)
	}

	// CAPTCHA is on by default once a secret is configured
	captcha, err := boolSetting(getenv("CAPTCHA_REQUIRED"), file.CaptchaRequired, cfg.TurnstileSecret != "")
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_REQUIRED: %w", err)
	}
	cfg.CaptchaRequired = captcha

	// Timeouts and limits
	cfg.UpstreamTimeout = defaultUpstreamTimeout
	if *upstreamTimeout > 0 {
		cfg.UpstreamTimeout = *upstreamTimeout
	} else if v := str("", "UPSTREAM_TIMEOUT", file.UpstreamTimeout, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q", v)
		}
		cfg.UpstreamTimeout = d
	}

	cfg.MaxBodyBytes = defaultMaxBodyBytes
	if v := getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q", v)
		}
		cfg.MaxBodyBytes = n
	} else if file.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = file.MaxBodyBytes
	}

	cfg.warn()
	return cfg, nil
}

// warn logs settings that will make every submission fail with a
// configuration error.
func (c *Config) warn() {
	if len(c.AllowedOrigins) == 0 {
		c.Logger.Warn("ALLOWED_ORIGINS not set - responding with Access-Control-Allow-Origin: *")
	}
	if c.CaptchaRequired && c.TurnstileSecret == "" {
		c.Logger.Warn("CAPTCHA_REQUIRED is set but TURNSTILE_SECRET_KEY is not - submissions will fail")
	}
	if !c.CaptchaRequired {
		c.Logger.Info("captcha verification disabled")
	}

	emailReady := c.ResendAPIKey != "" && c.EmailFrom != "" && c.EmailTo != ""
	switch c.Sink {
	case SinkAirtable:
		if c.AirtableAPIKey == "" || c.AirtableBaseID == "" || c.AirtableTable == "" {
			c.Logger.Warn("AIRTABLE_API_KEY, AIRTABLE_BASE_ID and AIRTABLE_TABLE_NAME are required - submissions will fail")
		}
		if !emailReady {
			c.Logger.Info("email notifications disabled (RESEND_API_KEY, CONTACT_EMAIL_FROM or CONTACT_EMAIL_TO not set)")
		}
	case SinkEmail:
		if !emailReady {
			c.Logger.Warn("RESEND_API_KEY, CONTACT_EMAIL_FROM and CONTACT_EMAIL_TO are required - submissions will fail")
		}
	}
	c.Logger.Info("contact sink selected", "sink", c.Sink, "captcha_required", c.CaptchaRequired)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// boolSetting resolves env > file > def. Only explicit true/false style
// values are accepted from the environment.
func boolSetting(env string, file *bool, def bool) (bool, error) {
	if env != "" {
		return strconv.ParseBool(strings.ToLower(env))
	}
	if file != nil {
		return *file, nil
	}
	return def, nil
}
