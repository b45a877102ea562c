package orientation

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"vitured/pkg/protocol"
)

// Settings is the static part of an Adjuster configuration.
type Settings struct {
	ScaleRoll   float32
	ScalePitch  float32
	ScaleYaw    float32
	InvertRoll  bool
	InvertPitch bool
	InvertYaw   bool
}

func DefaultSettings() Settings {
	return Settings{ScaleRoll: 1, ScalePitch: 1, ScaleYaw: 1}
}

// Adjuster rewrites raw Euler angles before they leave the host:
// subtract the recenter reference, scale, then invert.
type Adjuster struct {
	mu        sync.Mutex
	settings  Settings
	reference *protocol.Euler
	last      *protocol.Euler
	logger    *log.Entry
}

func NewAdjuster(s Settings) *Adjuster {
	return &Adjuster{
		settings: s,
		logger:   log.WithField("component", "orientation"),
	}
}

func (a *Adjuster) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Reference returns the recenter reference, if one is set.
func (a *Adjuster) Reference() (protocol.Euler, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reference == nil {
		return protocol.Euler{}, false
	}
	return *a.reference, true
}

// Apply adjusts e and remembers it as the latest raw sample.
func (a *Adjuster) Apply(e protocol.Euler) protocol.Euler {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw := e
	a.last = &raw

	if ref := a.reference; ref != nil {
		e.Roll -= ref.Roll
		e.Pitch -= ref.Pitch
		e.Yaw -= ref.Yaw
	}

	s := a.settings
	e.Roll *= s.ScaleRoll
	e.Pitch *= s.ScalePitch
	e.Yaw *= s.ScaleYaw

	if s.InvertRoll {
		e.Roll = -e.Roll
	}
	if s.InvertPitch {
		e.Pitch = -e.Pitch
	}
	if s.InvertYaw {
		e.Yaw = -e.Yaw
	}
	return e
}

// ApplyCommands updates the settings. Recenter takes the latest raw sample
// as the new reference, or clears it when no sample has been seen.
func (a *Adjuster) ApplyCommands(cmds []Command) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, cmd := range cmds {
		switch cmd.Op {
		case OpRecenter:
			if a.last != nil {
				ref := *a.last
				a.reference = &ref
			} else {
				a.reference = nil
			}
		case OpScaleRoll:
			a.settings.ScaleRoll = cmd.Scale
		case OpScalePitch:
			a.settings.ScalePitch = cmd.Scale
		case OpScaleYaw:
			a.settings.ScaleYaw = cmd.Scale
		case OpInvertRoll:
			a.settings.InvertRoll = cmd.Invert
		case OpInvertPitch:
			a.settings.InvertPitch = cmd.Invert
		case OpInvertYaw:
			a.settings.InvertYaw = cmd.Invert
		default:
			a.logger.WithField("op", cmd.Op).Warn("ignoring unknown orientation command")
			continue
		}
		a.logger.WithField("command", cmd.String()).Debug("applied orientation command")
	}
}
