package corebasic

import "github.com/jcorbin/corebasic/internal/flushio"

// Option configures Compile, per the functional-options pattern used
// throughout this package's ancestry.
type Option func(*options)

type options struct {
	memorySize                int
	screenWidth, screenHeight int
	logfn                     func(mess string, args ...interface{})
	out                       flushio.WriteFlusher
}

func newOptions() *options {
	return &options{
		memorySize:   DefaultMemorySize,
		screenWidth:  DefaultScreenWidth,
		screenHeight: DefaultScreenHeight,
	}
}

// DefaultScreenWidth and DefaultScreenHeight size the screen buffer Output
// pokes into when WithScreenSize is not given.
const (
	DefaultScreenWidth  = 64
	DefaultScreenHeight = 32
)

// WithMemorySize sets the cell count reserved for static data and the
// stack; Compile fails with ErrOverflow if the program's data needs more
// than this.
func WithMemorySize(n int) Option {
	return func(o *options) { o.memorySize = n }
}

// WithScreenSize sets the Output/ScreenBuffer pixel grid dimensions.
func WithScreenSize(w, h int) Option {
	return func(o *options) { o.screenWidth, o.screenHeight = w, h }
}

// WithOutput directs Disp's text output through w.
func WithOutput(w flushio.WriteFlusher) Option {
	return func(o *options) { o.out = w }
}

// WithLogf attaches a leveled trace logger to the compiled VM's Step loop.
func WithLogf(logfn func(mess string, args ...interface{})) Option {
	return func(o *options) { o.logfn = logfn }
}
