// Package config loads runtime configuration for the HydroTrack CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or
//     $HYDRO_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   local SQLite database path
//	-r string   remote backend: grpc, s3 or none
//	-k string   access token signing secret
//	-l string   log file path
//	-v string   log level
//	-z string   time zone used for calendar days
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds. Absent keys keep their default:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "hydrotrack.db",
//	  "remote_backend": "s3",
//	  "s3": {"region": "us-east-1", "endpoint": "http://127.0.0.1:9000", "bucket": "hydro"},
//	  "time_zone": "America/Sao_Paulo",
//	  "reminder_start_hour": 6,
//	  "reminder_end_hour": 18,
//	  "reminder_interval": "3h"
//	}
package config
