/*
Package config provides typed access to store and view settings loaded from
YAML, JSON, or TOML.

# Overview

A Config wraps a map[string]any, usually decoded from a file, and offers
accessors that return a default when a key is missing or holds a value of
the wrong type. livedata.OptionsFromConfig and livedata.ViewOptionsFromConfig
turn a Config into store and view options.

# Basic Usage

	cfg, err := config.FromFile("livedata.toml")
	if err != nil {
	    log.Fatal(err)
	}

	store := cfg.Sub("store")
	store.String("field_id", "id")                  // "key"
	store.Bool("queue", false)                      // true
	store.Duration("queue_delay", 0)                // 10ms
	store.StringMap("types", nil)                   // {"due": "Date"}
	cfg.Int("store.queue_max", -1)                  // dotted keys reach into sections

A file for the example above:

	[store]
	field_id    = "key"
	queue       = true
	queue_delay = "10ms"
	queue_max   = 100

	[store.types]
	due = "Date"

# Keys

A key is looked up as written first. When that fails and the key contains
dots, each segment selects a nested map, so "store.queue_max" reads
queue_max from the store section.

# Type Coercion

Duration accepts a string for time.ParseDuration, a number of seconds, or a
time.Duration. Int accepts any integer kind, and a float without a fractional
part. Float accepts any numeric kind. Decoders differ (YAML yields int, TOML
yields int64, JSON yields float64); the accessors treat them alike.

# File Loading

FromFile picks a decoder by extension: .yaml, .yml, .json, or .toml.
FromYAML, FromJSON, and FromTOML parse bytes directly.

# Thread Safety

Config is safe for concurrent reads. It never modifies the wrapped map.
*/
package config
