package dedupe

// Option applies a configuration option to the KeyedDeduper.
type Option func(*KeyedDeduper)

// WithMaxKeys sets how many keys are remembered before the oldest is evicted.
func WithMaxKeys(n int) Option {
	return func(d *KeyedDeduper) {
		if n > 0 {
			d.maxKeys = n
		}
	}
}
