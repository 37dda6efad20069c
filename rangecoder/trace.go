package rangecoder

import (
	"context"
	"fmt"
	"log/slog"
)

// Op identifies the operation reported to a Tracer.
type Op int

const (
	OpEncode Op = iota
	OpEncodeBits
	OpFinish
	OpStart
	OpDecode
	OpDecodeBits
)

func (op Op) String() string {
	switch op {
	case OpEncode:
		return "encode"
	case OpEncodeBits:
		return "encode-bits"
	case OpFinish:
		return "finish"
	case OpStart:
		return "start"
	case OpDecode:
		return "decode"
	case OpDecodeBits:
		return "decode-bits"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// State is a snapshot of the coder registers after an operation.
type State struct {
	LowerBound uint64
	Range      uint64
	// Data is the decoder input window. It is zero for encoders.
	Data uint64
}

// Tracer observes every operation of an Encoder or Decoder.
type Tracer interface {
	// Step is called after op completed. symbol is the coded index, or the
	// bit width for raw bits, or -1 when there is none. shifted is the
	// number of bytes written or consumed by op.
	Step(op Op, symbol int, shifted int, state State)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(op Op, symbol int, shifted int, state State)

func (f TracerFunc) Step(op Op, symbol int, shifted int, state State) {
	f(op, symbol, shifted, state)
}

// NewSlogTracer returns a Tracer that logs every step at debug level.
func NewSlogTracer(logger *slog.Logger) Tracer {
	return &slogTracer{logger: logger}
}

type slogTracer struct {
	logger *slog.Logger
}

func (t *slogTracer) Step(op Op, symbol int, shifted int, state State) {
	ctx := context.Background()
	if !t.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	t.logger.LogAttrs(ctx, slog.LevelDebug, "rangecoder "+op.String(),
		slog.Int("symbol", symbol),
		slog.Int("shifted", shifted),
		slog.String("range", fmt.Sprintf("%016x", state.Range)),
		slog.String("lower_bound", fmt.Sprintf("%016x", state.LowerBound)),
		slog.String("data", fmt.Sprintf("%016x", state.Data)),
	)
}

// Option configures an Encoder or Decoder.
type Option func(*config)

type config struct {
	tracer Tracer
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithTracer reports every operation to t.
func WithTracer(t Tracer) Option {
	return func(c *config) { c.tracer = t }
}
