package config

import (
	"fmt"
	"time"
)

// Remote backends.
const (
	BackendGRPC = "grpc"
	BackendS3   = "s3"
	BackendNone = "none"
)

// S3Config locates the bucket holding user records for the s3 backend.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// Config holds runtime settings for the HydroTrack CLI.
//
// Units: intervals and timeouts are time.Duration; reminder window bounds
// are local hours.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	RemoteBackend       string
	S3                  S3Config
	TokenSecret         string
	TokenValidity       time.Duration
	LogFile             string
	LogLevel            string
	TimeZone            string
	ReminderStartHour   int
	ReminderEndHour     int
	ReminderInterval    time.Duration
	PushTimeout         time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "hydrotrack.db"
	c.RemoteBackend = BackendGRPC
	c.S3 = S3Config{Region: "us-east-1", Prefix: "hydrotrack"}
	c.TokenSecret = "secret"
	c.TokenValidity = 15 * time.Minute
	c.LogFile = "hydrotrack.log"
	c.LogLevel = "info"
	c.TimeZone = "Local"
	c.ReminderStartHour = 6
	c.ReminderEndHour = 18
	c.ReminderInterval = 3 * time.Hour
	c.PushTimeout = 10 * time.Second
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.RemoteBackend {
	case BackendGRPC, BackendNone:
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 backend needs a bucket")
		}
	default:
		return fmt.Errorf("unknown remote backend %q", c.RemoteBackend)
	}
	if c.ReminderStartHour < 0 || c.ReminderEndHour > 24 || c.ReminderStartHour >= c.ReminderEndHour {
		return fmt.Errorf("invalid reminder window %d-%d", c.ReminderStartHour, c.ReminderEndHour)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("reminder interval must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
