package rope

import (
	"fmt"

	"github.com/dshills/strand/internal/engine/alloc"
)

// Default tuning values.
const (
	DefaultCopyMax        = 23
	DefaultLazyThreshold  = 128
	DefaultRebalanceDepth = 20
	DefaultRebalanceSlack = 6
	DefaultMaxDepth       = 45
	DefaultPathCacheLen   = 8
	DefaultIteratorBufLen = 32
	DefaultScratchLen     = 64 * 1024

	// maxSupportedDepth keeps every minLen entry inside int64.
	maxSupportedDepth = 88
	// maxPathCacheLen is bounded by the width of the cursor's direction mask.
	maxPathCacheLen = 64
)

// Config holds the tuning knobs of the rope algorithms.
type Config struct {
	// CopyMax is the largest combined size for which two adjacent leaves are
	// merged into one by copying instead of joined under a Concat node.
	CopyMax int

	// LazyThreshold is the substring length above which a Substring view is
	// created instead of an eager copy.
	LazyThreshold int

	// RebalanceDepth is the depth above which a new Concat is checked for
	// eager rebalancing.
	RebalanceDepth int

	// RebalanceSlack is how many levels deeper than a Fibonacci-balanced
	// tree of the same size a tree past RebalanceDepth may grow before it is
	// rebalanced eagerly.
	RebalanceSlack int

	// MaxDepth is the deepest tree the balancer will produce.
	MaxDepth int

	// PathCacheLen is how many ancestors a Cursor remembers.
	PathCacheLen int

	// IteratorBufLen is the size of a Cursor's window over generated text.
	IteratorBufLen int

	// ScratchLen bounds the buffer used to stream generated text.
	ScratchLen int
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		CopyMax:        DefaultCopyMax,
		LazyThreshold:  DefaultLazyThreshold,
		RebalanceDepth: DefaultRebalanceDepth,
		RebalanceSlack: DefaultRebalanceSlack,
		MaxDepth:       DefaultMaxDepth,
		PathCacheLen:   DefaultPathCacheLen,
		IteratorBufLen: DefaultIteratorBufLen,
		ScratchLen:     DefaultScratchLen,
	}
}

// Validate reports whether the values can work together.
func (c Config) Validate() error {
	switch {
	case c.CopyMax < 0:
		return fmt.Errorf("%w: copy max %d is negative", ErrInvalidConfig, c.CopyMax)
	case c.LazyThreshold < 0:
		return fmt.Errorf("%w: lazy threshold %d is negative", ErrInvalidConfig, c.LazyThreshold)
	case c.MaxDepth < 2 || c.MaxDepth > maxSupportedDepth:
		return fmt.Errorf("%w: max depth %d not in [2, %d]", ErrInvalidConfig, c.MaxDepth, maxSupportedDepth)
	case c.RebalanceDepth < 1 || c.RebalanceDepth > c.MaxDepth:
		return fmt.Errorf("%w: rebalance depth %d not in [1, %d]", ErrInvalidConfig, c.RebalanceDepth, c.MaxDepth)
	case c.RebalanceSlack < 0:
		return fmt.Errorf("%w: rebalance slack %d is negative", ErrInvalidConfig, c.RebalanceSlack)
	case c.PathCacheLen < 1 || c.PathCacheLen > maxPathCacheLen:
		return fmt.Errorf("%w: path cache length %d not in [1, %d]", ErrInvalidConfig, c.PathCacheLen, maxPathCacheLen)
	case c.IteratorBufLen < 1:
		return fmt.Errorf("%w: iterator buffer length %d", ErrInvalidConfig, c.IteratorBufLen)
	case c.ScratchLen < 1:
		return fmt.Errorf("%w: scratch length %d", ErrInvalidConfig, c.ScratchLen)
	}
	return nil
}

// Logger receives debug messages about rebalancing.
type Logger interface {
	Debug(msg string, args ...any)
}

// settings is shared, read-only state carried by every Rope built with the
// same options.
type settings struct {
	cfg   Config
	alloc alloc.Allocator
	log   Logger
}

var defaultSettings = &settings{cfg: DefaultConfig(), alloc: alloc.Default}

// Option configures how ropes are built.
type Option func(*settings)

// WithConfig sets the tuning values. Invalid values make the constructor
// return ErrInvalidConfig.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithAllocator sets the allocator for node storage.
func WithAllocator(a alloc.Allocator) Option {
	return func(s *settings) {
		if a != nil {
			s.alloc = a
		}
	}
}

// WithLogger sets a logger for rebalancing diagnostics.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

func newSettings(opts []Option) (*settings, error) {
	if len(opts) == 0 {
		return defaultSettings, nil
	}
	s := &settings{cfg: DefaultConfig(), alloc: alloc.Default}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settings) debug(msg string, args ...any) {
	if s.log != nil {
		s.log.Debug(msg, args...)
	}
}

// minLen[i] is the minimum size of a balanced tree of depth i:
// 1, 2, 3, 5, 8, ...
var minLen = func() [maxSupportedDepth + 2]int {
	var t [maxSupportedDepth + 2]int
	t[0], t[1] = 1, 2
	for i := 2; i < len(t); i++ {
		t[i] = t[i-1] + t[i-2]
	}
	return t
}()
