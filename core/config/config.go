package config

import (
	"errors"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilConfig is returned when Load receives a nil pointer.
	ErrNilConfig = errors.New("config target must not be nil")

	// ErrLoadFailed wraps environment parsing failures.
	ErrLoadFailed = errors.New("failed to load config from environment")
)

var (
	envOnce sync.Once
	cache   sync.Map // reflect.Type -> parsed config value
)

// Load parses environment variables into cfg. The first call for a given type
// does the parsing; subsequent calls return the cached value. A .env file in
// the working directory is loaded once per process, if present.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	envOnce.Do(func() {
		// Missing .env is the normal case outside development.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrLoadFailed, err)
	}

	// LoadOrStore keeps the first successfully parsed value under concurrent loads.
	actual, _ := cache.LoadOrStore(key, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup paths
// where a missing required variable should abort the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
