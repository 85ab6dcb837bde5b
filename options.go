package justina

import (
	"maps"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/native"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/rs/zerolog"
)

// Option configures a Justina machine.
type Option func(*options)

type options struct {
	program      string
	filename     string
	logger       *zerolog.Logger
	observer     vm.Observer
	console      console.Device
	files        *storage.Files
	callbacks    map[string]native.Func
	housekeeping func() bool
	printResults bool
	lastValues   int
	maxEvalDepth int
	maxFlowDepth int
}

func collectOptions(opts ...Option) *options {
	o := &options{callbacks: map[string]native.Func{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) registry() (*native.Registry, error) {
	r := native.NewRegistry()
	for alias, fn := range o.callbacks {
		if err := r.Register(alias, fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (o *options) vmOpts(registry *native.Registry) []vm.Option {
	opts := []vm.Option{vm.WithCallbacks(registry), vm.WithPrintResults(o.printResults)}
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.console != nil {
		opts = append(opts, vm.WithConsole(o.console))
	}
	if o.files != nil {
		opts = append(opts, vm.WithFiles(o.files))
	}
	if o.housekeeping != nil {
		opts = append(opts, vm.WithHousekeeping(o.housekeeping))
	}
	if o.lastValues > 0 {
		opts = append(opts, vm.WithLastValues(o.lastValues))
	}
	if o.maxEvalDepth > 0 {
		opts = append(opts, vm.WithMaxEvalDepth(o.maxEvalDepth))
	}
	if o.maxFlowDepth > 0 {
		opts = append(opts, vm.WithMaxFlowDepth(o.maxFlowDepth))
	}
	return opts
}

// WithProgram supplies program source that is loaded when the machine is
// created.
func WithProgram(source string) Option {
	return func(o *options) {
		o.program = source
		o.filename = ""
	}
}

// WithProgramFile names a program in the machine's file storage that is
// loaded when the machine is created.
func WithProgramFile(path string) Option {
	return func(o *options) {
		o.filename = path
		o.program = ""
	}
}

// WithCallbacks registers native procedures programs can call through
// cb(alias, ...). This option is additive.
func WithCallbacks(callbacks map[string]native.Func) Option {
	return func(o *options) {
		maps.Copy(o.callbacks, callbacks)
	}
}

// WithCallback registers a single native procedure.
func WithCallback(alias string, fn native.Func) Option {
	return func(o *options) {
		o.callbacks[alias] = fn
	}
}

// WithLogger sets the machine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &log
	}
}

// WithObserver sets an observer for statement, call and return events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithConsole sets the console device. The default is an in-memory buffer
// with no input.
func WithConsole(dev console.Device) Option {
	return func(o *options) {
		o.console = dev
	}
}

// WithFiles sets the file storage. The default is an in-memory file system.
func WithFiles(files *storage.Files) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithHousekeeping sets the hook called between statements and while
// blocking commands wait. Returning true kills the running program.
func WithHousekeeping(fn func() bool) Option {
	return func(o *options) {
		o.housekeeping = fn
	}
}

// WithPrintResults makes the machine print immediate-mode results.
func WithPrintResults(enabled bool) Option {
	return func(o *options) {
		o.printResults = enabled
	}
}

// WithLastValues sets the size of the last-value history.
func WithLastValues(n int) Option {
	return func(o *options) {
		o.lastValues = n
	}
}

// WithMaxEvalDepth bounds the nesting of eval() calls.
func WithMaxEvalDepth(n int) Option {
	return func(o *options) {
		o.maxEvalDepth = n
	}
}

// WithMaxFlowDepth bounds nested calls and blocks together.
func WithMaxFlowDepth(n int) Option {
	return func(o *options) {
		o.maxFlowDepth = n
	}
}
