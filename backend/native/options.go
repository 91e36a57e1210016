//go:build !nogpu

package native

import "time"

const (
	defaultWaitTimeout    = 5 * time.Second
	defaultSPIRVCacheSize = 64
)

// Option configures the native driver.
type Option func(*options)

type options struct {
	waitTimeout    time.Duration
	spirvCacheSize int
}

func newOptions(opts []Option) options {
	o := options{
		waitTimeout:    defaultWaitTimeout,
		spirvCacheSize: defaultSPIRVCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWaitTimeout bounds how long WaitIdle and ReadBuffer wait for the GPU.
// Non-positive values keep the default of five seconds.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.waitTimeout = d
		}
	}
}

// WithSPIRVCacheSize sets how many compiled kernel specializations each
// device keeps. Non-positive values keep the default of 64.
func WithSPIRVCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.spirvCacheSize = n
		}
	}
}
