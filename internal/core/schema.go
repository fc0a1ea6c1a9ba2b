package core

// schema.go decodes cleansing configurations.
//
// A request config is JSON. It is checked against the embedded JSON Schema,
// decoded on top of the default rules and then validated. YAML rule files
// take the same path after conversion to JSON.

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed presets/default.yaml presets/config.schema.json
var presets embed.FS

const schemaURL = "config.schema.json"

// DefaultRules returns the built-in rule configuration.
func DefaultRules() RuleConfig {
	data, err := presets.ReadFile("presets/default.yaml")
	if err != nil {
		panic(fmt.Sprintf("core: read default preset: %v", err))
	}
	var rules RuleConfig
	if err := yaml.Unmarshal(data, &rules); err != nil {
		panic(fmt.Sprintf("core: parse default preset: %v", err))
	}
	return rules
}

// LoadRules reads a YAML rule preset from path and overlays it on the
// built-in defaults. A mapping in the file is ignored.
func LoadRules(path string) (RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleConfig{}, fmt.Errorf("read rules preset: %w", err)
	}
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RuleConfig{}, &InvalidConfigError{Problems: []string{"rules preset is not valid YAML"}, Cause: err}
	}
	if err := rules.Validate(); err != nil {
		return RuleConfig{}, err
	}
	return rules, nil
}

// ConfigDecoder turns request payloads into validated CleansingConfigs.
// It is safe for concurrent use.
type ConfigDecoder struct {
	defaults RuleConfig
	schema   *jsonschema.Schema
}

// NewConfigDecoder compiles the config schema. Fields a payload leaves out
// take their value from defaults.
func NewConfigDecoder(defaults RuleConfig) (*ConfigDecoder, error) {
	raw, err := presets.ReadFile("presets/config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &ConfigDecoder{defaults: defaults, schema: schema}, nil
}

// Defaults returns a copy of the rules that payloads are overlaid on.
func (d *ConfigDecoder) Defaults() RuleConfig {
	return d.defaults.clone()
}

// Decode parses a JSON config payload.
func (d *ConfigDecoder) Decode(data []byte) (CleansingConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return CleansingConfig{}, &InvalidConfigError{Problems: []string{"config is required"}}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return CleansingConfig{}, &InvalidConfigError{Problems: []string{"config is not valid JSON"}, Cause: err}
	}
	if err := d.schema.Validate(doc); err != nil {
		return CleansingConfig{}, schemaError(err)
	}

	cfg := CleansingConfig{RuleConfig: d.defaults.clone()}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CleansingConfig{}, &InvalidConfigError{Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return CleansingConfig{}, err
	}
	return cfg, nil
}

// DecodeYAML parses a YAML config with the same shape as the JSON payload.
func (d *ConfigDecoder) DecodeYAML(data []byte) (CleansingConfig, error) {
	js, err := YAMLToJSON(data)
	if err != nil {
		return CleansingConfig{}, &InvalidConfigError{Problems: []string{"config is not valid YAML"}, Cause: err}
	}
	return d.Decode(js)
}

// DecodeFile reads a .json, .yaml or .yml config file.
func (d *ConfigDecoder) DecodeFile(path string) (CleansingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CleansingConfig{}, fmt.Errorf("read config: %w", err)
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return d.DecodeYAML(data)
	}
	return d.Decode(data)
}

// YAMLToJSON re-encodes a YAML document as JSON. Unquoted dates become
// YYYY-MM-DD strings.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	case time.Time:
		return t.Format(ReferenceDateLayout)
	default:
		return v
	}
}

// schemaError flattens a schema failure into one problem per leaf.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &InvalidConfigError{Cause: err}
	}
	var problems []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			problems = append(problems, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return &InvalidConfigError{Problems: problems}
}

func (c RuleConfig) clone() RuleConfig {
	c.Immunity.Keywords = slices.Clone(c.Immunity.Keywords)
	c.Exemption.Tributes = slices.Clone(c.Exemption.Tributes)
	c.Incomplete.Keywords = slices.Clone(c.Incomplete.Keywords)
	return c
}
