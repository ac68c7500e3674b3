package mad

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLayout selects the index record layout. Defaults to LayoutStandard.
func WithLayout(l Layout) Option {
	return func(a *Archive) {
		a.layout = l
	}
}

// WithLogger sets the logger for index inference and extraction.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithLenientReserved accepts non-zero reserved fields in LayoutReserved
// packages, logging a warning instead of failing with ErrCorruptIndex.
func WithLenientReserved(enabled bool) Option {
	return func(a *Archive) {
		a.lenientReserved = enabled
	}
}

// WithMapped makes Open memory-map the package instead of reading it
// through a file handle. It has no effect on Load.
func WithMapped(enabled bool) Option {
	return func(a *Archive) {
		a.mapped = enabled
	}
}

// WithProgress sets a callback for load and extraction progress.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Archive) {
		a.progress = fn
	}
}

// WithCacheLimit keeps at most n loaded payloads, evicting with an adaptive
// replacement policy. Zero or negative keeps every payload until Release.
func WithCacheLimit(n int) Option {
	return func(a *Archive) {
		a.cacheLimit = n
	}
}
