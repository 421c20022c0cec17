package inventory

// Config holds the storage policies of the inventory types.
type Config struct {
	// AuthoritativeCategories may overwrite existing prefixes.
	AuthoritativeCategories []string `mapstructure:"authoritative_categories" default:"GW,GSW"`
	// GatewayCategories are counted as routers when classifying segments.
	GatewayCategories []string `mapstructure:"gateway_categories" default:"GW,GSW"`
	// EventSource is the source subsystem stamped on emitted events.
	EventSource string `mapstructure:"event_source" default:"ipdevpoll"`
	// EventTarget is the subsystem events are addressed to.
	EventTarget string `mapstructure:"event_target" default:"eventEngine"`
}

func (c Config) withDefaults() Config {
	if len(c.AuthoritativeCategories) == 0 {
		c.AuthoritativeCategories = []string{"GW", "GSW"}
	}
	if len(c.GatewayCategories) == 0 {
		c.GatewayCategories = []string{"GW", "GSW"}
	}
	if c.EventSource == "" {
		c.EventSource = "ipdevpoll"
	}
	if c.EventTarget == "" {
		c.EventTarget = "eventEngine"
	}
	return c
}
