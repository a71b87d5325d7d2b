package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LoadJSON loads configuration from a JSON file
func LoadJSON(path string, target *Config) error {
	// #nosec G304 -- path is provided by the caller (library function); callers should validate/lock down inputs if untrusted.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// UnmarshalJSON parses durations from "5s" style strings.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("duration must be a string: %s", data)
	}
	return d.parse(s)
}

// MarshalJSON renders durations as "5s" style strings.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Std().String())), nil
}
