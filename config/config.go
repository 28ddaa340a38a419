// Package config loads the statesync application configuration from a yml
// file and STATESYNC_* environment variables.
package config

import (
	"path/filepath"
	"time"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/metrics"
	"github.com/RuiFG/statesync/persist"
	"github.com/RuiFG/statesync/store"
	"github.com/RuiFG/statesync/tracing"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/uber-go/tally/v4"
)

const (
	EnvPrefix  = "STATESYNC_"
	configName = "application"

	BackendMemory  = "memory"
	BackendFS      = "fs"
	BackendPebble  = "pebble"
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"

	sqliteFile = "statesync.db"
)

var ErrInvalidConfig = errors.New("invalid config")

type Application struct {
	Debug   bool    `mapstructure:"debug" env:"DEBUG"`
	Log     Log     `mapstructure:"log" envPrefix:"LOG_"`
	Store   Store   `mapstructure:"store" envPrefix:"STORE_"`
	Sync    Sync    `mapstructure:"sync" envPrefix:"SYNC_"`
	Metrics Metrics `mapstructure:"metrics" envPrefix:"METRICS_"`
	Tracing Tracing `mapstructure:"tracing" envPrefix:"TRACING_"`
}

type Log struct {
	Level   string `mapstructure:"level" env:"LEVEL"`
	Encoder string `mapstructure:"encoder" env:"ENCODER"`
}

type Store struct {
	Backend   string `mapstructure:"backend" env:"BACKEND"`
	Dir       string `mapstructure:"dir" env:"DIR"`
	CacheSize int    `mapstructure:"cache_size" env:"CACHE_SIZE"`
}

type Sync struct {
	Prefix             string        `mapstructure:"prefix" env:"PREFIX"`
	RawKeys            bool          `mapstructure:"raw_keys" env:"RAW_KEYS"`
	Debounce           time.Duration `mapstructure:"debounce" env:"DEBOUNCE"`
	PolicyEngine       string        `mapstructure:"policy_engine" env:"POLICY_ENGINE"`
	CASExpression      string        `mapstructure:"cas_expression" env:"CAS_EXPRESSION"`
	DistinctExpression string        `mapstructure:"distinct_expression" env:"DISTINCT_EXPRESSION"`
}

type Metrics struct {
	Listen         string        `mapstructure:"listen" env:"LISTEN"`
	ReportInterval time.Duration `mapstructure:"report_interval" env:"REPORT_INTERVAL"`
}

type Tracing struct {
	Endpoint    string  `mapstructure:"endpoint" env:"ENDPOINT"`
	SampleRatio float64 `mapstructure:"sample_ratio" env:"SAMPLE_RATIO"`
}

func Default() Application {
	return Application{
		Log:     Log{Level: "info", Encoder: "json"},
		Store:   Store{Backend: BackendMemory},
		Sync:    Sync{Prefix: persist.DefaultPrefix, Debounce: persist.DefaultDebounce, PolicyEngine: string(persist.EngineExpr)},
		Metrics: Metrics{ReportInterval: metrics.DefaultReportInterval},
		Tracing: Tracing{SampleRatio: 1},
	}
}

// Load reads path, or application.yml from . and ./config when path is
// empty, on top of Default, then applies environment overrides and validates.
// A missing application.yml is not an error.
func Load(path string) (Application, error) {
	application := Default()
	v := viper.New()
	v.SetConfigType("yml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return application, errors.WithMessage(err, "failed to read config")
		}
	}
	if err := v.Unmarshal(&application); err != nil {
		return application, errors.WithMessage(err, "failed to decode config")
	}
	if err := env.ParseWithOptions(&application, env.Options{Prefix: EnvPrefix}); err != nil {
		return application, errors.WithMessage(err, "failed to apply environment")
	}
	return application, application.Validate()
}

func invalid(format string, args ...any) error {
	return errors.WithMessagef(ErrInvalidConfig, format, args...)
}

func (a Application) Validate() error {
	if _, err := log.ParseLevel(a.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	if _, err := log.ParseOutputEncoder(a.Log.Encoder); err != nil {
		return invalid("log.encoder: %v", err)
	}
	switch a.Store.Backend {
	case BackendMemory:
	case BackendFS, BackendPebble, BackendSQLite, BackendLevelDB:
		if a.Store.Dir == "" {
			return invalid("store.dir is required for the %s backend", a.Store.Backend)
		}
	default:
		return invalid("unknown store.backend %q", a.Store.Backend)
	}
	if a.Store.CacheSize < 0 {
		return invalid("store.cache_size must not be negative")
	}
	if !a.Sync.RawKeys {
		if err := store.ValidatePrefix(a.Sync.Prefix); err != nil {
			return invalid("sync.prefix: %v", err)
		}
	}
	if a.Sync.Debounce < 0 {
		return invalid("sync.debounce must not be negative")
	}
	engine := persist.Engine(a.Sync.PolicyEngine)
	switch engine {
	case persist.EngineExpr, persist.EngineCEL, persist.EngineJS:
	default:
		return invalid("unknown sync.policy_engine %q", a.Sync.PolicyEngine)
	}
	if a.Sync.CASExpression != "" {
		if _, err := persist.CompileCAS(engine, a.Sync.CASExpression, nil); err != nil {
			return invalid("sync.cas_expression: %v", err)
		}
	}
	if a.Sync.DistinctExpression != "" {
		if _, err := persist.CompileDistinct(engine, a.Sync.DistinctExpression, nil); err != nil {
			return invalid("sync.distinct_expression: %v", err)
		}
	}
	if a.Metrics.ReportInterval < 0 {
		return invalid("metrics.report_interval must not be negative")
	}
	if a.Tracing.SampleRatio < 0 || a.Tracing.SampleRatio > 1 {
		return invalid("tracing.sample_ratio must be within [0, 1]")
	}
	return nil
}

// LogOptions assumes a validated Application. Debug forces the debug level
// and adds callers and stack traces.
func (a Application) LogOptions() *log.Options {
	level, _ := log.ParseLevel(a.Log.Level)
	encoder, _ := log.ParseOutputEncoder(a.Log.Encoder)
	options := log.DefaultOptions().WithName("statesync").WithLevel(level).WithOutputEncoder(encoder)
	if a.Debug {
		options = options.WithLevel(log.DebugLevel).WithCaller(log.ShortCallerEncoder).WithStacktrace(true)
	}
	return options
}

func (a Application) TracingOptions() tracing.Options {
	return tracing.Options{Endpoint: a.Tracing.Endpoint, SampleRatio: a.Tracing.SampleRatio}
}

func (a Application) OpenBackend(logger log.Logger) (store.Backend, error) {
	switch a.Store.Backend {
	case BackendMemory:
		return store.NewMemoryBackend(), nil
	case BackendFS:
		return store.NewFSBackend(logger, a.Store.Dir)
	case BackendPebble:
		return store.NewPebbleBackend(a.Store.Dir)
	case BackendSQLite:
		return store.NewSQLiteBackend(filepath.Join(a.Store.Dir, sqliteFile))
	case BackendLevelDB:
		return store.NewLevelDBBackend(a.Store.Dir)
	default:
		return nil, invalid("unknown store.backend %q", a.Store.Backend)
	}
}

// OpenStore opens the configured backend and the store on top of it.
func (a Application) OpenStore(logger log.Logger, scope tally.Scope) (*store.Store, error) {
	backend, err := a.OpenBackend(logger.Named("backend"))
	if err != nil {
		return nil, err
	}
	st, err := store.Open(backend,
		store.WithLogger(logger),
		store.WithScope(scope),
		store.WithCache(a.Store.CacheSize))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return st, nil
}

func (a Application) PersistOptions(logger log.Logger, scope tally.Scope) ([]persist.Option, error) {
	options := []persist.Option{
		persist.WithDebounce(a.Sync.Debounce),
		persist.WithLogger(logger),
		persist.WithScope(scope),
	}
	if a.Sync.RawKeys {
		options = append(options, persist.WithoutPrefix())
	} else {
		options = append(options, persist.WithPrefix(a.Sync.Prefix))
	}
	if a.Sync.CASExpression != "" {
		policy, err := persist.CompileCAS(persist.Engine(a.Sync.PolicyEngine), a.Sync.CASExpression, logger.Named("cas"))
		if err != nil {
			return nil, err
		}
		options = append(options, persist.WithCAS(policy))
	}
	if a.Sync.DistinctExpression != "" {
		policy, err := persist.CompileDistinct(persist.Engine(a.Sync.PolicyEngine), a.Sync.DistinctExpression, logger.Named("distinct"))
		if err != nil {
			return nil, err
		}
		options = append(options, persist.WithDistinct(policy))
	}
	return options, nil
}
