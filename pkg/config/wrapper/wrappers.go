package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Converter turns a raw source value into T. Sources such as the
// environment yield []byte, in-memory sources usually yield T directly.
type Converter[T any] func(raw interface{}) (T, error)

// TypedConfig adapts an untyped config.Config into a config.Typed[T].
type TypedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      Converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed wrapper around override.
func New[T any](override config.Config, defaultValue T, convert Converter[T]) *TypedConfig[T] {
	return &TypedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *TypedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.setLast(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	v, err := c.convert(raw)
	if err != nil {
		return lastValue, err
	}

	c.setLast(v)
	return v, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *TypedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *TypedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *TypedConfig[T]) setLast(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

// textConverter accepts values of type T as-is, and parses []byte and
// string sources with parse.
func textConverter[T any](parse func(string) (T, error)) Converter[T] {
	return func(raw interface{}) (T, error) {
		var zero T
		switch v := raw.(type) {
		case T:
			return v, nil
		case []byte:
			return parseOrWrap(parse, string(v))
		case string:
			return parseOrWrap(parse, v)
		default:
			return zero, ErrUnsuportedConversion
		}
	}
}

func parseOrWrap[T any](parse func(string) (T, error), s string) (T, error) {
	v, err := parse(s)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "config: cannot parse %q", s)
	}
	return v, nil
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return New(override, defaultValue, textConverter(strconv.ParseBool))
}

// NewBytesConfig returns a new byte array config utility wrapper. Only
// []byte sources are supported.
func NewBytesConfig(override config.Config, defaultValue []byte) config.Bytes {
	return New(override, defaultValue, func(raw interface{}) ([]byte, error) {
		if v, ok := raw.([]byte); ok {
			return v, nil
		}
		return nil, ErrUnsuportedConversion
	})
}

// NewDurationConfig returns a new time.Duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return New(override, defaultValue, textConverter(time.ParseDuration))
}

// NewFloat64Config returns a new float64 config utility wrapper
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return New(override, defaultValue, textConverter(func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}))
}

// NewInt64Config returns a new int64 config utility wrapper. int sources are
// accepted as well.
func NewInt64Config(override config.Config, defaultValue int64) config.Int64 {
	parse := textConverter(func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
	return New(override, defaultValue, func(raw interface{}) (int64, error) {
		if v, ok := raw.(int); ok {
			return int64(v), nil
		}
		return parse(raw)
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return New(override, defaultValue, textConverter(func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	}))
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return New(override, defaultValue, func(raw interface{}) (string, error) {
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return "", ErrUnsuportedConversion
		}
	})
}
