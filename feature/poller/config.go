package poller

// Config holds the worker pool settings.
type Config struct {
	// Workers bounds how many netboxes are committed concurrently.
	Workers int `mapstructure:"workers" default:"4"`
	// KeepReports is how many archived reports to keep per netbox; zero keeps all.
	KeepReports int `mapstructure:"keep_reports" default:"0"`
}
