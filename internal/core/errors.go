package core

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of every configuration failure. Such errors
// are fatal and never retried.
var ErrConfiguration = errors.New("configuration error")

// ConfigError names the offending option.
type ConfigError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s=%v: %s", e.Key, e.Value, e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }
