package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration for baseDir.
//
// An empty path means DefaultFile inside baseDir, which may be absent. A named
// path must exist; relative names are resolved against baseDir. overrides are
// "dotted.key=value" pairs applied after the file.
func Load(baseDir, path string, overrides []string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	raw, err := defaultsMap()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileMap, err := parseYAML(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		mergeMaps(raw, fileMap)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	for _, kv := range overrides {
		if err := applyOverride(raw, kv); err != nil {
			return Config{}, err
		}
	}

	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// defaultsMap renders Default() through YAML so file values merge over it key by key.
func defaultsMap() (map[string]any, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeMaps merges src into dst. Nested maps merge; everything else replaces.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// applyOverride sets a dotted key. Values are parsed as YAML scalars or flow
// sequences, so "coverage.jobs=4" and "coverage.exclude=[a, b]" both work.
func applyOverride(raw map[string]any, kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid override %q (want key=value)", kv)
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	if parsed == nil {
		parsed = value
	}

	parts := strings.Split(key, ".")
	node := raw
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = parsed
	return nil
}

func decode(raw map[string]any) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
