package pipeline

import (
	"log/slog"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithProfile sets the operator profile for filter documents and $match
// stages. Query documents always use validation.Basic.
func WithProfile(profile validation.Profile) Option {
	return func(e *Engine) {
		e.profile = profile
	}
}

// WithLogger sets the logger receiving per-invocation debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver sets the observer notified of invocations and results.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// WithRegistry replaces the ordering and modulo operator registry.
func WithRegistry(registry *operators.OperatorRegistry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}
