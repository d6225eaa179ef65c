// Package log is the logging abstraction shared by birdcall components.
//
// Components depend on the Logger interface only. Two backends ship with the
// package: zerolog (the default, used by the CLI) and logrus, selected with
// the log_backend setting. NoopLogger discards everything and is what the
// library uses when no logger is configured.
//
//	logger := log.NewZerologAdapter(log.ParseLevel("debug"))
//	logger.Info("session opened", log.String("device", "10.0.0.5"))
package log
