package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks the environment variables that override file settings.
const EnvPrefix = "KEYSEQ_"

// envMapping maps environment variables to dotted config paths.
var envMapping = map[string]string{
	"KEYSEQ_SEQUENCE":          "sequence",
	"KEYSEQ_TIMEOUT":           "timeout",
	"KEYSEQ_ONCE":              "once",
	"KEYSEQ_GAMEPAD":           "gamepad.enabled",
	"KEYSEQ_STORE_DRIVER":      "store.driver",
	"KEYSEQ_STORE_PATH":        "store.path",
	"KEYSEQ_STORE_KEY":         "store.encryption.key",
	"KEYSEQ_EXEC":              "exec.command",
	"KEYSEQ_REDIS_ADDR":        "store.redis.addr",
	"KEYSEQ_REDIS_PASSWORD":    "store.redis.password",
	"KEYSEQ_REDIS_DB":          "store.redis.db",
	"KEYSEQ_SERVER_ADDR":       "server.addr",
	"KEYSEQ_LOG_LEVEL":         "log.level",
	"KEYSEQ_LOG_FORMAT":        "log.format",
	"KEYSEQ_RESET_ON_MISMATCH": "reset_on_mismatch",
}

// Load reads path, applies environment overrides and decodes the result
// over Default. An empty path or a missing file yields the defaults plus
// the environment.
func Load(path string) (Config, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	raw = DeepMerge(raw, Environ(os.LookupEnv))

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", displayPath(path), err)
	}
	return cfg, nil
}

// ReadFile parses a YAML, TOML or JSON file into a generic map, picking the
// format by extension (YAML when unknown).
func ReadFile(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes data in the format named by ext (".yaml", ".toml", ".json").
func Parse(ext string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", strings.TrimPrefix(ext, "."), err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// Decode copies raw over out, converting durations and loose scalar types.
func Decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(durationHook, mapstructure.StringToSliceHookFunc(",")),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Environ collects the KEYSEQ_* overrides visible through lookup.
func Environ(lookup func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for env, path := range envMapping {
		if val, ok := lookup(env); ok {
			setByPath(out, path, val)
		}
	}
	if val, ok := lookup("KEYSEQ_KEYS"); ok && val != "" {
		setByPath(out, "keys", strings.Split(val, ","))
	}
	return out
}

// DeepMerge merges src into dst; src wins, nested maps merge recursively.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}

func setByPath(m map[string]any, path string, val any) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// durationHook accepts "1.5s" style strings and bare numbers in milliseconds.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		s := strings.TrimSpace(v)
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			return millis(ms), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", v)
		}
		return d, nil
	case int:
		return millis(float64(v)), nil
	case int64:
		return millis(float64(v)), nil
	case uint64:
		return millis(float64(v)), nil
	case float64:
		return millis(v), nil
	}
	return data, nil
}

func millis(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

func displayPath(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}
