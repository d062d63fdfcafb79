package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoder() error {
	if strings.TrimSpace(c.Encoder.Bitrate) == "" {
		return errors.New("encoder.bitrate must be set")
	}
	if len(c.Encoder.Extensions) == 0 {
		return errors.New("encoder.extensions must list at least one accepted extension")
	}
	for _, ext := range c.Encoder.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("encoder.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if c.Matcher.Threshold <= 0 {
		return errors.New("matcher.threshold must be positive")
	}
	weights := map[string]int{
		"matcher.last_name_exact":  c.Matcher.LastNameExact,
		"matcher.first_name_exact": c.Matcher.FirstNameExact,
		"matcher.family_substring": c.Matcher.FamilySubstring,
		"matcher.family_initial":   c.Matcher.FamilyInitial,
		"matcher.given_substring":  c.Matcher.GivenSubstring,
		"matcher.given_initial":    c.Matcher.GivenInitial,
	}
	for name, weight := range weights {
		if weight < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.MinFreeRatio >= 1 {
		return errors.New("fetch.min_free_ratio must be below 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
