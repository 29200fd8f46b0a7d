package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/livedata/pkg/livedata/config"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.Equal(t, "v", config.New(map[string]any{"k": "v"}).Raw()["k"])
}

// TestAccessors verifies typed extraction with defaults.
func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":    "alice",
		"enabled": true,
		"count":   int64(42),
		"ratio":   0.5,
		"whole":   3.0,
		"frac":    3.5,
		"small":   uint8(7),
		"tags":    []any{"a", "b"},
		"mixed":   []any{"a", 1},
		"types":   map[string]any{"due": "Date", "n": "number"},
		"bad":     map[string]any{"due": 1},
	})

	assert.Equal(t, "alice", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("count", "x"))
	assert.True(t, cfg.Bool("enabled", false))
	assert.False(t, cfg.Bool("name", false))

	assert.Equal(t, 42, cfg.Int("count", 0))
	assert.Equal(t, 3, cfg.Int("whole", 0))
	assert.Equal(t, -1, cfg.Int("frac", -1))
	assert.Equal(t, 7, cfg.Int("small", 0))
	assert.Equal(t, -1, cfg.Int("name", -1))

	assert.Equal(t, 0.5, cfg.Float("ratio", 0))
	assert.Equal(t, 42.0, cfg.Float("count", 0))
	assert.Equal(t, 9.0, cfg.Float("missing", 9))

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("tags", nil))
	assert.Nil(t, cfg.StringSlice("mixed", nil))

	assert.Equal(t, map[string]string{"due": "Date", "n": "number"}, cfg.StringMap("types", nil))
	assert.Nil(t, cfg.StringMap("bad", nil))
	assert.Nil(t, cfg.StringMap("name", nil))

	assert.Equal(t, "dflt", cfg.Any("missing", "dflt"))
	assert.True(t, cfg.Has("ratio"))
	assert.False(t, cfg.Has("missing"))
}

// TestDuration verifies duration extraction with various input types.
func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "30s", 30 * time.Second},
		{"milliseconds string", "500ms", 500 * time.Millisecond},
		{"int seconds", 2, 2 * time.Second},
		{"int64 seconds", int64(3), 3 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 7 * time.Minute, 7 * time.Minute},
		{"negative", "-5s", -5 * time.Second},
		{"invalid string", "soon", time.Hour},
		{"wrong type", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", time.Hour))
		})
	}
}

// TestDottedKeys verifies dotted keys reach into nested sections.
func TestDottedKeys(t *testing.T) {
	cfg := config.New(map[string]any{
		"store": map[string]any{"queue_max": 10, "field_id": "key"},
		"a.b":   "flat",
	})

	assert.Equal(t, 10, cfg.Int("store.queue_max", 0))
	assert.Equal(t, "flat", cfg.String("a.b", ""))
	assert.Equal(t, "key", cfg.Sub("store").String("field_id", "id"))
	assert.False(t, cfg.Sub("missing").Has("field_id"))
	assert.False(t, cfg.Sub("a.b").Has("anything"), "a non-map section is empty")
}

// TestLoaders verifies each format decodes into the same accessors.
func TestLoaders(t *testing.T) {
	tests := []struct {
		name string
		load func([]byte) (config.Config, error)
		data string
	}{
		{"yaml", config.FromYAML, "store:\n  queue_max: 5\n  queue_delay: 10ms\n  types:\n    due: Date\n"},
		{"json", config.FromJSON, `{"store": {"queue_max": 5, "queue_delay": "10ms", "types": {"due": "Date"}}}`},
		{"toml", config.FromTOML, "[store]\nqueue_max = 5\nqueue_delay = \"10ms\"\n\n[store.types]\ndue = \"Date\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.load([]byte(tt.data))
			require.NoError(t, err)

			store := cfg.Sub("store")
			assert.Equal(t, 5, store.Int("queue_max", 0))
			assert.Equal(t, 10*time.Millisecond, store.Duration("queue_delay", 0))
			assert.Equal(t, map[string]string{"due": "Date"}, store.StringMap("types", nil))
		})
	}
}

func TestLoaders_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("invalid: yaml: content:"))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = config.FromJSON([]byte("{"))
	assert.ErrorContains(t, err, "parse json")

	_, err = config.FromTOML([]byte("key = "))
	assert.ErrorContains(t, err, "parse toml")
}

// TestFromFile verifies format detection by extension.
func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"yaml file", write("a.yaml", "field_id: key\n"), ""},
		{"yml file", write("b.yml", "field_id: key\n"), ""},
		{"json file", write("c.json", `{"field_id": "key"}`), ""},
		{"toml file", write("d.toml", `field_id = "key"`), ""},
		{"uppercase extension", write("e.TOML", `field_id = "key"`), ""},
		{"unsupported extension", write("f.txt", "field_id"), "unsupported config file extension"},
		{"file not found", filepath.Join(tmpDir, "missing.yaml"), "read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromFile(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "key", cfg.String("field_id", "id"))
		})
	}
}
