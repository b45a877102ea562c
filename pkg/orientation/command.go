package orientation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Op string

const (
	OpRecenter    Op = "Recenter"
	OpScaleRoll   Op = "ScaleRoll"
	OpScalePitch  Op = "ScalePitch"
	OpScaleYaw    Op = "ScaleYaw"
	OpInvertRoll  Op = "InvertRoll"
	OpInvertPitch Op = "InvertPitch"
	OpInvertYaw   Op = "InvertYaw"
)

func (o Op) isScale() bool {
	return o == OpScaleRoll || o == OpScalePitch || o == OpScaleYaw
}

func (o Op) isInvert() bool {
	return o == OpInvertRoll || o == OpInvertPitch || o == OpInvertYaw
}

// Command is one control-socket instruction. On the wire it is externally
// tagged: "Recenter", {"ScaleYaw":1.5} or {"InvertPitch":true}.
type Command struct {
	Op     Op
	Scale  float32
	Invert bool
}

func Recenter() Command {
	return Command{Op: OpRecenter}
}

func Scale(op Op, f float32) Command {
	return Command{Op: op, Scale: f}
}

func Invert(op Op, invert bool) Command {
	return Command{Op: op, Invert: invert}
}

func (c Command) String() string {
	switch {
	case c.Op.isScale():
		return fmt.Sprintf("%s(%g)", c.Op, c.Scale)
	case c.Op.isInvert():
		return fmt.Sprintf("%s(%t)", c.Op, c.Invert)
	default:
		return string(c.Op)
	}
}

func (c Command) MarshalJSON() ([]byte, error) {
	switch {
	case c.Op == OpRecenter:
		return json.Marshal(string(c.Op))
	case c.Op.isScale():
		return json.Marshal(map[string]float32{string(c.Op): c.Scale})
	case c.Op.isInvert():
		return json.Marshal(map[string]bool{string(c.Op): c.Invert})
	default:
		return nil, fmt.Errorf("unknown orientation op %q", c.Op)
	}
}

func (c *Command) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		if Op(name) != OpRecenter {
			return fmt.Errorf("unknown orientation command %q", name)
		}
		*c = Recenter()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("orientation command needs exactly one tag, got %d", len(tagged))
	}
	for name, raw := range tagged {
		op := Op(name)
		switch {
		case op.isScale():
			var f float32
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*c = Scale(op, f)
		case op.isInvert():
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*c = Invert(op, b)
		default:
			return fmt.Errorf("unknown orientation command %q", name)
		}
	}
	return nil
}

// DecodeCommand parses a single control-socket frame.
func DecodeCommand(frame []byte) (Command, error) {
	var c Command
	err := json.Unmarshal(frame, &c)
	return c, err
}
