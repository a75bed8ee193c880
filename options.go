package pxdoc

import (
	"log/slog"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/source"
)

const (
	// DefaultHistoryLimit is the number of undo entries kept by default.
	DefaultHistoryLimit = 1000

	// DefaultLoadWorkers is the number of concurrent fetches in LoadAll.
	DefaultLoadWorkers = 4
)

// Option configures an Editor during creation.
//
// Example:
//
//	ed, err := pxdoc.New(doc,
//	    pxdoc.WithSource(src),
//	    pxdoc.WithHistoryLimit(50),
//	)
type Option func(*options)

// options holds optional configuration for Editor creation.
type options struct {
	logger       *slog.Logger
	historyLimit int
	src          source.Source
	maxDimension int
	loadWorkers  int
}

func defaultOptions() options {
	return options{
		historyLimit: DefaultHistoryLimit,
		maxDimension: canvas.MaxDimension,
		loadWorkers:  DefaultLoadWorkers,
	}
}

// WithLogger sets a logger for this editor only. Without it the editor
// logs through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHistoryLimit bounds the number of undo entries. The oldest entries
// are dropped first. Zero or negative keeps every entry.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// WithSource sets the byte-range source Unloaded placeholders are read
// from. Without a source, Load fails with ErrSourceUnavailable.
func WithSource(src source.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithMaxDimension limits the canvas width and height patches may produce.
// It cannot exceed canvas.MaxDimension.
func WithMaxDimension(n int) Option {
	return func(o *options) {
		o.maxDimension = n
	}
}

// WithLoadWorkers sets how many placeholders LoadAll fetches at once.
// Zero or negative uses GOMAXPROCS.
func WithLoadWorkers(n int) Option {
	return func(o *options) {
		o.loadWorkers = n
	}
}
