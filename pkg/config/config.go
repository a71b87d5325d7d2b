package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Duration wraps time.Duration so config files can use "5s" / "250ms"
// notation in YAML and JSON.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config carries every recognized taskmesh option.
type Config struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
	Admin   AdminConfig   `yaml:"admin" json:"admin"`
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// Size is the fixed worker count. Required, >= 1.
	Size int `yaml:"size" json:"size"`

	// MaxQueueDepth bounds the pending queue for readiness reporting.
	// 0 means unbounded.
	MaxQueueDepth int `yaml:"max_queue_depth" json:"max_queue_depth"`

	// ShutdownTimeout bounds the graceful drain.
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BreakerConfig configures the admission circuit breaker.
type BreakerConfig struct {
	FailureThreshold float64  `yaml:"failure_threshold" json:"failure_threshold"`
	WindowSize       int      `yaml:"window_size" json:"window_size"`
	SuccessThreshold int      `yaml:"success_threshold" json:"success_threshold"`
	RecoveryTimeout  Duration `yaml:"recovery_timeout" json:"recovery_timeout"`
}

// AdminConfig configures the operational HTTP server.
type AdminConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Size:            10,
			MaxQueueDepth:   0,
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Breaker: BreakerConfig{
			FailureThreshold: 0.5,
			WindowSize:       10,
			SuccessThreshold: 3,
			RecoveryTimeout:  Duration(5 * time.Second),
		},
		Admin: AdminConfig{
			Addr: ":9090",
		},
	}
}

// Validate checks the configuration for hard errors.
func (c Config) Validate() error {
	if c.Pool.Size < 1 {
		return fmt.Errorf("pool.size must be >= 1, got %d", c.Pool.Size)
	}
	if c.Pool.MaxQueueDepth < 0 {
		return fmt.Errorf("pool.max_queue_depth must be >= 0, got %d", c.Pool.MaxQueueDepth)
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("breaker.failure_threshold must be in (0, 1], got %g", c.Breaker.FailureThreshold)
	}
	if c.Breaker.WindowSize < 1 {
		return fmt.Errorf("breaker.window_size must be >= 1, got %d", c.Breaker.WindowSize)
	}
	if c.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("breaker.success_threshold must be >= 1, got %d", c.Breaker.SuccessThreshold)
	}
	if c.Breaker.RecoveryTimeout <= 0 {
		return fmt.Errorf("breaker.recovery_timeout must be positive, got %s", c.Breaker.RecoveryTimeout.Std())
	}
	return nil
}

// Load loads configuration from a file (YAML or JSON)
// Automatically detects file type by extension
func Load(path string, target *Config) error {
	if strings.HasSuffix(path, ".json") {
		return LoadJSON(path, target)
	}
	// Default to YAML
	return LoadYAML(path, target)
}

// LoadWithEnv loads configuration from file and applies environment
// variable overrides. Environment variables use the format
// PREFIX_SECTION_FIELD (e.g., TASKMESH_POOL_SIZE). path may be empty to
// start from defaults only.
func LoadWithEnv(path string, prefix string, target *Config) error {
	if path != "" {
		if err := Load(path, target); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := ApplyEnvOverrides(prefix, target); err != nil {
		return fmt.Errorf("failed to apply env overrides: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration struct via reflection.
func ApplyEnvOverrides(prefix string, target *Config) error {
	if prefix == "" {
		prefix = "TASKMESH"
	}
	return applyEnvToStruct(prefix, reflect.ValueOf(target).Elem())
}

var durationType = reflect.TypeOf(Duration(0))

func applyEnvToStruct(prefix string, val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		envKey := prefix + "_" + strings.ToUpper(fieldType.Name)
		envKey = strings.ReplaceAll(envKey, "-", "_")

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(envKey, field); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envKey, err)
		}
	}

	return nil
}

func setFieldFromEnv(field reflect.Value, envValue string) error {
	if field.Type() == durationType {
		var d Duration
		if err := d.parse(envValue); err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", envValue)
		}
		field.SetInt(intVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", envValue)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal := strings.ToLower(envValue) == "true" || envValue == "1"
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
