// Package domain provides the value objects of the credential resolution pipeline.
package domain

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// InstanceID is a value object for validated instance identifiers.
// An instance id is a numeric tenant identifier whose first four digits
// encode the pool the instance is served from (7107348018 -> pool 7107).
type InstanceID struct {
	value string
}

var instanceIDPattern = regexp.MustCompile(`^[0-9]{4,}$`)

// NewInstanceID creates an InstanceID, applying validation.
func NewInstanceID(raw string) (InstanceID, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return InstanceID{}, fmt.Errorf("instance id cannot be empty or whitespace-only")
	}

	if !instanceIDPattern.MatchString(trimmed) {
		return InstanceID{}, fmt.Errorf("invalid instance id %q: expected at least 4 leading digits", raw)
	}

	return InstanceID{value: trimmed}, nil
}

// NewInstanceIDUnsafe creates an InstanceID without validation.
// Use only in tests or after validation has already been performed.
func NewInstanceIDUnsafe(raw string) InstanceID {
	return InstanceID{value: strings.TrimSpace(raw)}
}

// String returns the instance id as a string.
func (id InstanceID) String() string {
	return id.value
}

// IsZero reports whether the id is the zero value.
func (id InstanceID) IsZero() bool {
	return id.value == ""
}

// PoolCode returns the four-digit pool code encoded in the id.
func (id InstanceID) PoolCode() int {
	if len(id.value) < 4 {
		return 0
	}
	code, err := strconv.Atoi(id.value[:4])
	if err != nil {
		return 0
	}
	return code
}

// Equals compares two InstanceIDs for equality.
func (id InstanceID) Equals(other InstanceID) bool {
	return id.value == other.value
}

// InstanceIDDecodeHook provides a mapstructure decode hook for InstanceID,
// so configuration values decode with validation applied.
func InstanceIDDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(InstanceID{}) {
			return data, nil
		}
		return NewInstanceID(data.(string))
	}
}
