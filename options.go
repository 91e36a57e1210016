package compute

import "log/slog"

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := compute.New(a, compute.WithLabel("tensor"), compute.WithLogger(logger))
type Option func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	logger *slog.Logger
	label  string
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		logger: nil, // Logger() at construction time
		label:  "compute",
	}
}

// WithLogger sets the logger of the Context and its sub-systems.
// Without it the package logger set by SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *contextOptions) {
		o.logger = l
	}
}

// WithLabel sets the debug label of the logical device.
func WithLabel(label string) Option {
	return func(o *contextOptions) {
		if label != "" {
			o.label = label
		}
	}
}
