package ms670x

import (
	"github.com/sirupsen/logrus"

	"github.com/kentavv/ms670x/internal/stream"
)

// Options configures decoding.
type Options struct {
	// Logger receives advisory logging. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// Observers see every event, e.g. a metrics.Meter.
	Observers []stream.Observer
}

func (opts Options) readerOptions() []stream.Option {
	var out []stream.Option
	if opts.Logger != nil {
		out = append(out, stream.WithLogger(opts.Logger))
	}
	for _, o := range opts.Observers {
		out = append(out, stream.WithObserver(o))
	}
	return out
}
