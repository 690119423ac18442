package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Err returns nil when e is empty.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validate returns every problem in the configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.BaseURL == "" {
		add("baseUrl", "baseUrl is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil {
		add("baseUrl", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("baseUrl", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("baseUrl", "host is required")
	}

	if c.Users < 1 {
		add("users", "must be at least 1, got %d", c.Users)
	}
	if c.Duration <= 0 {
		add("duration", "must be positive")
	}
	if c.Timeout <= 0 {
		add("timeout", "must be positive")
	}
	if c.Pacing < 0 {
		add("pacing", "must not be negative")
	}
	if c.Username == "" {
		add("username", "username is required")
	}

	if c.Swarm.WaitMin < 0 {
		add("swarm.waitMin", "must not be negative")
	}
	if c.Swarm.WaitMax < c.Swarm.WaitMin {
		add("swarm.waitMax", "must not be below waitMin (%s)", c.Swarm.WaitMin)
	}
	if c.Swarm.SpawnRate < 0 {
		add("swarm.spawnRate", "must not be negative")
	}
	errs = append(errs, validateWeights(c.Swarm.Weights)...)

	if c.Attack.Rate < 1 {
		add("attack.rate", "must be at least 1, got %d", c.Attack.Rate)
	}
	if c.Attack.Duration <= 0 {
		add("attack.duration", "must be positive")
	}

	return errs
}

func validateWeights(weights map[string]int) ValidationErrors {
	var errs ValidationErrors
	if len(weights) == 0 {
		return ValidationErrors{{Field: "swarm.weights", Message: "at least one task weight is required"}}
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		w := weights[name]
		field := "swarm.weights." + name
		switch name {
		case TaskPing, TaskAuth, TaskCreateGetDelete:
		default:
			errs = append(errs, ValidationError{Field: field, Message: "unknown task"})
			continue
		}
		if w < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "weight must not be negative"})
			continue
		}
		total += w
	}
	if total == 0 && len(errs) == 0 {
		errs = append(errs, ValidationError{Field: "swarm.weights", Message: "weights must not all be zero"})
	}
	return errs
}
