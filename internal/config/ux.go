package config

// UIConfig holds terminal interface configuration.
type UIConfig struct {
	// Platform shown at startup when nothing else selects one (steem, hive)
	Platform string `json:"platform" yaml:"platform"`

	// Width used for word wrapping of rendered markdown (voters report)
	WrapWidth int `json:"wrap_width" yaml:"wrap_width"`

	// MaxVoters caps the voter list in the voters modal
	MaxVoters int `json:"max_voters" yaml:"max_voters"`

	// LiveReload re-reads the config file while the dashboard runs
	LiveReload bool `json:"live_reload" yaml:"live_reload"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Platform:   "steem",
		WrapWidth:  80,
		MaxVoters:  10,
		LiveReload: true,
	}
}
