package storage

// Config holds the object storage settings of the run-report archive.
type Config struct {
	// Enabled turns archiving of run reports on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the address of the S3 compatible service.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	// Bucket receives the reports.
	Bucket string `mapstructure:"bucket" default:"inventory-reports"`
	// Prefix is prepended to every object name.
	Prefix string `mapstructure:"prefix" default:"runs"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds connection setup and the first response byte.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
