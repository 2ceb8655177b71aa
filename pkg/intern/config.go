package intern

// config.go defines the configuration objects and functional options
// accepted by New / NewConcurrent: a private config struct populated by
// functional options, validated once by applyOptions, with sentinel errors
// for invalid input.
//
// © 2025 interncore authors. MIT License.

import (
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/solarflare/interncore/internal/unsafehelpers"
)

// Capacity is the pair (expected-distinct-strings, expected-total-bytes).
// It is consumed once at construction to pre-size the map and the arena's
// first slab; it does not bound anything at runtime (see MemoryLimits for
// that).
type Capacity struct {
	Strings int // expected number of distinct strings
	Bytes   int // expected total bytes across all distinct strings
}

// MemoryLimits caps the bytes the arena may allocate, excluding the
// always-free empty string. Mutable at runtime via SetMemoryLimit.
type MemoryLimits struct {
	MaxBytes int64
}

// Option configures a newly constructed Interner or ConcurrentInterner.
type Option func(*config)

type config struct {
	capacity Capacity
	limits   MemoryLimits
	hasher   Hasher
	logger   *zap.Logger
	registry *prometheus.Registry
	shards   int // concurrent interner only; ignored by the single-owner one
}

func defaultConfig() *config {
	return &config{
		hasher: DefaultHasher(),
		logger: zap.NewNop(),
		shards: 0, // 0 means "let ConcurrentInterner pick a default"
	}
}

// WithCapacity pre-sizes the interner for the expected number of distinct
// strings and total bytes.
func WithCapacity(c Capacity) Option {
	return func(cfg *config) { cfg.capacity = c }
}

// WithMemoryLimit caps the arena's total byte footprint.
func WithMemoryLimit(maxBytes int64) Option {
	return func(cfg *config) { cfg.limits = MemoryLimits{MaxBytes: maxBytes} }
}

// WithHasher overrides the default hasher. The hash algorithm is pluggable
// and external to the interner; this is the seam.
func WithHasher(h Hasher) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.hasher = h
		}
	}
}

// WithLogger plugs an external zap.Logger. The interner never logs on its
// hot path (Get, GetOrIntern, Resolve); only exceptional events are emitted
// (arena store refusals and key space exhaustion). Clone reports its
// failures as errors and does not log them to this logger.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil (the
// default) disables metrics entirely, and the hot path pays nothing for it.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(cfg *config) { cfg.registry = reg }
}

// WithShardCount overrides ConcurrentInterner's shard count, a small power
// of two defaulting to 4x the core count bucketed. Ignored by the
// single-owner Interner. A value of 0 selects the default. Panics at
// construction time if shards is negative, or non-zero and not a power of
// two.
func WithShardCount(shards int) Option {
	return func(cfg *config) { cfg.shards = shards }
}

// applyOptions folds opts onto a default config and validates the result
// once: negative capacity or memory-limit hints and a non-power-of-two
// shard count are rejected here rather than discovered later as a confusing
// runtime failure. A shard count of 0 means "let ConcurrentInterner pick a
// default" and is left untouched.
func applyOptions(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.capacity.Strings < 0 || cfg.capacity.Bytes < 0 {
		return nil, errInvalidCapacity
	}
	if cfg.limits.MaxBytes < 0 {
		return nil, errInvalidMemoryLimit
	}
	if cfg.shards < 0 {
		return nil, errInvalidShardCount
	}
	if cfg.shards > 0 && !unsafehelpers.IsPowerOfTwo(uint32(cfg.shards)) {
		return nil, errInvalidShardCount
	}

	return cfg, nil
}

// mustApplyOptions is applyOptions's infallible counterpart, used by the
// New*/NewConcurrent* constructors: invalid configuration is a caller
// mistake discovered at construction time, so it panics rather than
// threading an error through every constructor's return signature.
func mustApplyOptions(opts []Option) *config {
	cfg, err := applyOptions(opts)
	if err != nil {
		mustPanic("new", err)
	}
	return cfg
}
