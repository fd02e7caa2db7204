// Package logger provides structured logging utilities built on Go's standard
// slog package: a factory with environment-specific presets and a set of
// pre-built, nil-safe attribute helpers for common logging scenarios.
//
// # Basic Usage
//
// Create loggers using the factory function with various configuration options:
//
//	import "github.com/evalhub/authcore/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("authcore"))
//
//	// Production: JSON format, info level
//	log := logger.New(
//		logger.WithProduction("authcore"),
//	)
//
//	log.Info("session refreshed",
//		logger.Component("authsession"),
//		logger.Event("refresh"),
//	)
//
// # Attribute Helpers
//
// Attribute helpers use the empty Attr pattern for nil safety. This allows
// calls like log.Info("msg", logger.Error(err)) without explicit nil checks:
//
//	log.Error("refresh failed",
//		logger.Error(err),
//		logger.RetryCount(1),
//	)
//
// All components of this module accept a *slog.Logger via their functional
// options and default to a discard logger, so logging is always optional.
package logger
