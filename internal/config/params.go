// Package config handles run-id records: the configuration that identifies
// one experiment (environment, algorithm, common knobs, algorithm knobs).
//
// Params is adapted from the teacher repository's own generic
// configuration map, generalized so the same Pop*/Get* machinery pops both
// the common run-id fields and every algorithm-specific knob spec.md §6
// lists.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params represents generic string-valued configuration parameters, as
// parsed from a "key=value,key2=value2" configuration string.
type Params map[string]string

// NewParamsFromConfigString creates Params from a user-provided
// configuration string, e.g. "czt,czt_bias=2.5,num_threads=8".
func NewParamsFromConfigString(s string) Params {
	params := make(Params)
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		subParts := strings.SplitN(part, "=", 2)
		if len(subParts) == 1 {
			params[subParts[0]] = ""
		} else {
			params[subParts[0]] = subParts[1]
		}
	}
	return params
}

// paramValue is the set of types a configuration knob may take.
type paramValue interface {
	bool | int | float32 | float64 | string
}

// GetParamOr parses the parameter named key to type T if present, or
// returns defaultValue if key is absent. For bool, a key with no value
// ("flag" with no "=value") is interpreted as true.
func GetParamOr[T paramValue](params Params, key string, defaultValue T) (T, error) {
	var zero T
	vAny := any(defaultValue)
	toT := func(v any) T { return v.(T) }
	switch vAny.(type) {
	case string:
		if value, ok := params[key]; ok {
			return toT(value), nil
		}
	case int:
		if value, ok := params[key]; ok && value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse %s=%q as int", key, value)
			}
			return toT(parsed), nil
		}
	case float32:
		if value, ok := params[key]; ok && value != "" {
			parsed, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse %s=%q as float32", key, value)
			}
			return toT(float32(parsed)), nil
		}
	case float64:
		if value, ok := params[key]; ok && value != "" {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return zero, errors.Wrapf(err, "failed to parse %s=%q as float64", key, value)
			}
			return toT(parsed), nil
		}
	case bool:
		if value, ok := params[key]; ok {
			lower := strings.ToLower(value)
			if value == "" || lower == "true" || value == "1" {
				return toT(true), nil
			}
			if lower == "false" || value == "0" {
				return toT(false), nil
			}
			return zero, errors.Errorf("failed to parse %s=%q as bool", key, value)
		}
	}
	return defaultValue, nil
}

// PopParamOr is like GetParamOr, but also deletes key from params once read,
// so that a planner constructor can report leftover, unrecognised keys as a
// ConfigError after popping every knob it understands.
func PopParamOr[T paramValue](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// Clone returns a shallow copy of params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
