// Package config provides configuration management for the reconciler.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Defaults come from the `default` struct tags of
// every section; lists are comma separated and durations use Go syntax.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key and upload limit
//   - Database: MySQL or SQLite connection details
//   - Inventory: authoritative and gateway categories, event addressing
//   - Poller: worker count and archived report retention
//   - MQTT: optional broker publishing of state-change events
//   - Storage: S3/MinIO bucket for run reports
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Poller.Workers)
package config
