package exportcheck

// Config holds configuration for a validator.
type Config struct {
	// Policy is the default reference-on-detection policy applied when
	// the caller does not pass one explicitly.
	Policy Policy

	// RulesFile is an optional path to a YAML taxonomy rules file loaded
	// at configuration time. Empty means no file is loaded.
	RulesFile string
}

// DefaultConfig returns a Config with sensible defaults: the check is
// disabled (PolicyIgnore) and no rules file is loaded.
func DefaultConfig() Config {
	return Config{
		Policy: PolicyIgnore,
	}
}
