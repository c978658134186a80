package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SetValue sets a configuration value by its dotted YAML key, e.g.
// "settings.log_level" or "mswep.flags". The value is parsed as YAML, so
// lists are written as "[a, b]" and durations as "30s".
func (c *Config) SetValue(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	target := reflect.New(field.Type())
	if err := yaml.Unmarshal([]byte(value), target.Interface()); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	field.Set(target.Elem())
	return nil
}

// GetValue returns the value of a dotted YAML key as a string.
func (c *Config) GetValue(key string) (string, error) {
	field, err := c.lookup(key)
	if err != nil {
		return "", err
	}
	return formatValue(field), nil
}

// ToMap flattens the configuration into dotted keys. This is useful for
// displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	root := reflect.ValueOf(c).Elem()
	for i := 0; i < root.NumField(); i++ {
		section := yamlKey(root.Type().Field(i))
		sv := root.Field(i)
		for j := 0; j < sv.NumField(); j++ {
			result[section+"."+yamlKey(sv.Type().Field(j))] = formatValue(sv.Field(j))
		}
	}
	return result
}

// Keys returns every dotted key accepted by SetValue, sorted.
func (c *Config) Keys() []string {
	m := c.ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown configuration key: %s", key)
	}
	root := reflect.ValueOf(c).Elem()
	for i := 0; i < root.NumField(); i++ {
		if yamlKey(root.Type().Field(i)) != section {
			continue
		}
		sv := root.Field(i)
		for j := 0; j < sv.NumField(); j++ {
			if yamlKey(sv.Type().Field(j)) == name {
				return sv.Field(j), nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("unknown configuration key: %s", key)
}

// yamlKey handles yaml tags with options (e.g., "user_agent,omitempty").
func yamlKey(f reflect.StructField) string {
	return strings.Split(f.Tag.Get("yaml"), ",")[0]
}

func formatValue(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case time.Duration:
		return x.String()
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprintf("%v", x)
	}
}
