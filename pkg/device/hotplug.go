package device

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const VitureVendorID uint16 = 0x35ca

// VitureProductIDs lists the glasses models the SDK can drive.
var VitureProductIDs = map[uint16]string{
	0x1011: "One",
	0x1013: "One",
	0x1017: "One",
	0x1015: "One Lite",
	0x101b: "One Lite",
	0x1019: "Pro",
	0x101d: "Pro",
}

// Enumerator lists the product ids currently attached for vendorID.
type Enumerator interface {
	Enumerate(vendorID uint16) ([]uint16, error)
}

type EnumeratorFunc func(vendorID uint16) ([]uint16, error)

func (f EnumeratorFunc) Enumerate(vendorID uint16) ([]uint16, error) {
	return f(vendorID)
}

type HotplugEvent int

const (
	Arrived HotplugEvent = iota + 1
	Left
)

func (e HotplugEvent) String() string {
	switch e {
	case Arrived:
		return "arrived"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Watcher polls an Enumerator and reports presence transitions of supported
// glasses.
type Watcher struct {
	enum     Enumerator
	interval time.Duration
	logger   *log.Entry
}

type WatcherOption func(*Watcher)

func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func NewWatcher(enum Enumerator, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		enum:     enum,
		interval: 500 * time.Millisecond,
		logger:   log.WithField("component", "hotplug"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Present reports whether a supported model is attached.
func (w *Watcher) Present() (string, bool, error) {
	ids, err := w.enum.Enumerate(VitureVendorID)
	if err != nil {
		return "", false, err
	}
	for _, id := range ids {
		if model, ok := VitureProductIDs[id]; ok {
			return model, true, nil
		}
	}
	return "", false, nil
}

// Run emits an event on out for every presence change until ctx is done.
// The first poll reports Arrived if glasses are already attached.
func (w *Watcher) Run(ctx context.Context, out chan<- HotplugEvent) {
	present := false
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		model, now, err := w.Present()
		if err != nil {
			w.logger.WithError(err).Debug("enumerate failed")
		} else if now != present {
			present = now
			ev := Left
			if now {
				ev = Arrived
				w.logger.WithField("model", model).Info("glasses attached")
			} else {
				w.logger.Info("glasses detached")
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
