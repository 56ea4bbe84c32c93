package jit

import (
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
)

const (
	DefaultOptLevel        = 3
	DefaultInlineThreshold = 275
	DefaultModuleName      = "calculon"
)

// Logger receives debug output such as the generated IR.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

type options struct {
	width           types.RealWidth
	optLevel        int
	inlineThreshold int
	globals         *symbols.Table
	logger          Logger
	moduleName      string
}

func defaultOptions() options {
	return options{
		width:           types.F64,
		optLevel:        DefaultOptLevel,
		inlineThreshold: DefaultInlineThreshold,
		logger:          nopLogger{},
		moduleName:      DefaultModuleName,
	}
}

// Option configures a compilation.
type Option func(*options)

// WithRealType selects double (the default) or float reals.
func WithRealType(w types.RealWidth) Option {
	return func(o *options) { o.width = w }
}

// WithOptLevel sets the optimisation level, clamped to 0..3.
func WithOptLevel(level int) Option {
	return func(o *options) { o.optLevel = min(max(level, 0), 3) }
}

// WithInlineThreshold sets the instruction count up to which internal
// functions are always inlined. Zero or less disables forced inlining.
func WithInlineThreshold(n int) Option {
	return func(o *options) { o.inlineThreshold = n }
}

// WithSymbols replaces the outermost scope. It must hold every intrinsic
// the program calls.
func WithSymbols(t *symbols.Table) Option {
	return func(o *options) { o.globals = t }
}

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithModuleName(name string) Option {
	return func(o *options) { o.moduleName = name }
}
