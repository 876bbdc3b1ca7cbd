package config

import (
	"encoding/json"
	"time"

	"github.com/spf13/afero"

	"github.com/dmitrijs2005/hydrotrack/internal/flagx"
	"github.com/dmitrijs2005/hydrotrack/internal/timex"
)

// configFS is swapped for an in-memory filesystem in tests.
var configFS afero.Fs = afero.NewOsFs()

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	RemoteBackend       string         `json:"remote_backend"`
	S3                  struct {
		Region    string `json:"region"`
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Bucket    string `json:"bucket"`
		Prefix    string `json:"prefix"`
	} `json:"s3"`
	TokenSecret       string         `json:"token_secret"`
	TokenValidity     timex.Duration `json:"token_validity"`
	LogFile           string         `json:"log_file"`
	LogLevel          string         `json:"log_level"`
	TimeZone          string         `json:"time_zone"`
	ReminderStartHour *int           `json:"reminder_start_hour"`
	ReminderEndHour   *int           `json:"reminder_end_hour"`
	ReminderInterval  timex.Duration `json:"reminder_interval"`
	PushTimeout       timex.Duration `json:"push_timeout"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config (or $HYDRO_CONFIG). Keys absent from the file keep their
// current value. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	data, err := afero.ReadFile(configFS, path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RemoteBackend, jc.RemoteBackend)
	setString(&cfg.S3.Region, jc.S3.Region)
	setString(&cfg.S3.Endpoint, jc.S3.Endpoint)
	setString(&cfg.S3.AccessKey, jc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, jc.S3.SecretKey)
	setString(&cfg.S3.Bucket, jc.S3.Bucket)
	setString(&cfg.S3.Prefix, jc.S3.Prefix)
	setString(&cfg.TokenSecret, jc.TokenSecret)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.TimeZone, jc.TimeZone)
	if jc.ReminderStartHour != nil {
		cfg.ReminderStartHour = *jc.ReminderStartHour
	}
	if jc.ReminderEndHour != nil {
		cfg.ReminderEndHour = *jc.ReminderEndHour
	}

	durations := []struct {
		dst *time.Duration
		v   timex.Duration
	}{
		{&cfg.OnlineCheckInterval, jc.OnlineCheckInterval},
		{&cfg.TokenValidity, jc.TokenValidity},
		{&cfg.ReminderInterval, jc.ReminderInterval},
		{&cfg.PushTimeout, jc.PushTimeout},
	}
	for _, d := range durations {
		if d.v.Duration != 0 {
			*d.dst = d.v.Duration
		}
	}
}
