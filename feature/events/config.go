package events

import "time"

// Config holds the MQTT publishing configuration.
type Config struct {
	Enabled        bool          `mapstructure:"enabled" default:"false"`
	Broker         string        `mapstructure:"broker" default:"tcp://localhost:1883"`
	ClientID       string        `mapstructure:"client_id" default:"inventory-reconciler"`
	TopicPrefix    string        `mapstructure:"topic_prefix" default:"inventory/events"`
	QoS            int           `mapstructure:"qos" default:"1"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" default:"5s"`
}
