package html2pdf

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds settings resolved by NewConverter.
type converterConfig struct {
	timeout       time.Duration
	workers       int
	poolSize      int
	factory       EngineFactory
	attempts      int
	retryDelay    time.Duration
	createDirs    bool
	verify        bool
	rateLimit     rate.Limit
	rateBurst     int
	configuration Configuration
}

// defaultTimeout bounds one document render when no timeout is specified.
const defaultTimeout = 30 * time.Second

func defaultConverterConfig() converterConfig {
	return converterConfig{
		timeout:       defaultTimeout,
		attempts:      DefaultAcquireAttempts,
		retryDelay:    DefaultAcquireDelay,
		createDirs:    true,
		configuration: A4(),
	}
}

// WithTimeout sets the per-document render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithWorkers sets the number of batch workers. Zero means pool capacity.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.cfg.workers = max(n, 0)
	}
}

// WithPoolSize sets the capacity of the converter's own pool.
// Zero sizes it from GOMAXPROCS. Ignored when WithPool is used.
func WithPoolSize(n int) Option {
	return func(c *Converter) {
		c.cfg.poolSize = max(n, 0)
	}
}

// WithEngineFactory replaces the Chrome engine, e.g. with a fake in tests.
// Ignored when WithPool is used.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Converter) {
		c.cfg.factory = f
	}
}

// WithPool shares an existing pool between converters.
// The caller keeps ownership: Converter.Close leaves the pool open.
func WithPool(p *Pool) Option {
	return func(c *Converter) {
		c.pool = p
		c.ownsPool = false
	}
}

// WithAcquireRetry sets how many times a worker waits for a free engine, and
// for how long each time, before the document fails with ErrPoolTimeout.
func WithAcquireRetry(attempts int, delay time.Duration) Option {
	return func(c *Converter) {
		if attempts > 0 {
			c.cfg.attempts = attempts
		}
		if delay > 0 {
			c.cfg.retryDelay = delay
		}
	}
}

// WithCreateDirectories controls whether missing output directories are
// created before writing. Enabled by default.
func WithCreateDirectories(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.createDirs = enabled
	}
}

// WithSink replaces the output sink. The default routes gs:// paths to
// Cloud Storage and everything else to the local filesystem.
func WithSink(s Sink) Option {
	return func(c *Converter) {
		c.sink = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithRateLimit caps how many documents per second workers start.
// perSecond <= 0 disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Converter) {
		if perSecond <= 0 {
			c.cfg.rateLimit = 0
			return
		}
		c.cfg.rateLimit = rate.Limit(perSecond)
		c.cfg.rateBurst = max(burst, 1)
	}
}

// WithVerify parses every PDF before it is written and records its page count.
func WithVerify(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.verify = enabled
	}
}

// WithConfiguration sets the page geometry. The converter keeps a copy.
func WithConfiguration(cfg Configuration) Option {
	return func(c *Converter) {
		c.cfg.configuration = cfg
	}
}
