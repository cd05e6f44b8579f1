package core

import "log/slog"

// PackOptions configures Pack and Add.
type PackOptions struct {
	dedup    bool
	workers  int
	logger   *slog.Logger
	progress ProgressFunc
}

// PackOption configures a PackOptions.
type PackOption func(*PackOptions)

// WithDedup enables or disables folder/file deduplication. Enabled by
// default; pass false for the CLI's --no-dedup flag.
func WithDedup(enabled bool) PackOption {
	return func(o *PackOptions) { o.dedup = enabled }
}

// WithWorkers sets the parallel compressor's worker count. Zero or
// negative means runtime.GOMAXPROCS.
func WithWorkers(n int) PackOption {
	return func(o *PackOptions) { o.workers = n }
}

// WithLogger sets the structured logger used during packing. If unset,
// logging is discarded.
func WithLogger(logger *slog.Logger) PackOption {
	return func(o *PackOptions) { o.logger = logger }
}

// WithProgress registers a callback invoked as Pack/Add move through
// stages. May be called concurrently during StageCompressing.
func WithProgress(fn ProgressFunc) PackOption {
	return func(o *PackOptions) { o.progress = fn }
}

func newPackOptions(opts ...PackOption) *PackOptions {
	o := &PackOptions{dedup: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *PackOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

func (o *PackOptions) report(ev ProgressEvent) {
	if o.progress != nil {
		o.progress(ev)
	}
}
