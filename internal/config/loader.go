package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envExpr matches ${VAR} and ${VAR:-default} in the raw YAML text.
var envExpr = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, interpolates environment
// variables, decodes it strictly (unknown keys are errors, so typos in
// field names fail loudly instead of silently using a default) and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := interpolate(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// interpolate substitutes ${VAR} and ${VAR:-default} expressions. The
// environment wins over the default. A variable with neither is collected
// and reported once, with every other unresolved name, after the full
// document has been scanned.
func interpolate(raw []byte) ([]byte, error) {
	var unresolved []string

	out := envExpr.ReplaceAllFunc(raw, func(match []byte) []byte {
		groups := envExpr.FindSubmatch(match)
		name := string(groups[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if groups[2] != nil {
			return groups[2]
		}
		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return nil, fmt.Errorf("unresolved variables: %s", strings.Join(unresolved, ", "))
	}
	return out, nil
}
