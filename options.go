package xltpl

import "time"

// Options holds configuration for the Filler.
type Options struct {
	mappings     *MappingConfig
	mappingsPath string
	transforms   map[string]TransformFunc
	scanWindow   int
	now          func() time.Time
}

func defaultOptions() *Options {
	return &Options{
		scanWindow: 50,
		now:        time.Now,
	}
}

// Option configures the Filler.
type Option func(*Options)

// WithMappings sets the field-mapping configuration directly.
func WithMappings(cfg *MappingConfig) Option {
	return func(o *Options) { o.mappings = cfg }
}

// WithMappingsFile sets the path of a mapping config file, loaded lazily on
// the first fill.
func WithMappingsFile(path string) Option {
	return func(o *Options) { o.mappingsPath = path }
}

// WithTransform registers a custom value transform under the given name.
func WithTransform(name string, fn TransformFunc) Option {
	return func(o *Options) {
		if o.transforms == nil {
			o.transforms = make(map[string]TransformFunc)
		}
		o.transforms[name] = fn
	}
}

// WithTotalScanWindow sets how many rows below row_start the Total-anchor
// scan inspects (default: 50).
func WithTotalScanWindow(rows int) Option {
	return func(o *Options) {
		if rows > 0 {
			o.scanWindow = rows
		}
	}
}

// WithClock overrides the time source used for timestamps and date-relative
// transforms. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}
