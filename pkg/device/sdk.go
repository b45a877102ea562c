package device

import (
	"errors"
	"fmt"
)

// IMUHandler receives raw IMU packets on an SDK-owned thread.
type IMUHandler func(data []byte, ts uint32)

// MCUHandler receives raw MCU messages on an SDK-owned thread.
type MCUHandler func(msgID uint16, data []byte, ts uint32)

// SDK is the vendor library boundary. Implementations are process-wide:
// at most one Init may be active at a time.
type SDK interface {
	Init(imu IMUHandler, mcu MCUHandler) bool
	Deinit()

	SetIMU(on bool) Result
	IMUState() State

	Set3D(on bool) Result
	State3D() State

	SetIMUFrequency(f Frequency) Result
	IMUFrequency() Frequency
}

var ErrSDKUnavailable = errors.New("viture sdk not linked into this build")

type Result int32

const (
	ResultTimeout         Result = -3
	ResultResponseError   Result = -2
	ResultWriteFail       Result = -1
	ResultSuccess         Result = 0
	ResultFailure         Result = 1
	ResultInvalidArgument Result = 2
	ResultNotEnoughMemory Result = 3
	ResultUnsupportedCmd  Result = 4
	ResultCRCMismatch     Result = 5
	ResultVersionMismatch Result = 6
	ResultMsgIDMismatch   Result = 7
	ResultMsgSTXMismatch  Result = 8
	ResultCodeNotWritten  Result = 9
)

func (r Result) String() string {
	switch r {
	case ResultTimeout:
		return "timeout"
	case ResultResponseError:
		return "response error"
	case ResultWriteFail:
		return "write fail"
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultInvalidArgument:
		return "invalid argument"
	case ResultNotEnoughMemory:
		return "not enough memory"
	case ResultUnsupportedCmd:
		return "unsupported command"
	case ResultCRCMismatch:
		return "crc mismatch"
	case ResultVersionMismatch:
		return "version mismatch"
	case ResultMsgIDMismatch:
		return "message id mismatch"
	case ResultMsgSTXMismatch:
		return "message stx mismatch"
	case ResultCodeNotWritten:
		return "code not written"
	default:
		return fmt.Sprintf("result(%d)", int32(r))
	}
}

func (r Result) OK() bool {
	return r == ResultSuccess
}

type State int32

const (
	StateOff State = 0
	StateOn  State = 1
)

func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Frequency is the IMU sample-rate code understood by the firmware.
type Frequency uint8

const (
	Frequency60  Frequency = 0x00
	Frequency90  Frequency = 0x01
	Frequency120 Frequency = 0x02
	Frequency240 Frequency = 0x03
)

func (f Frequency) Hz() int {
	switch f {
	case Frequency60:
		return 60
	case Frequency90:
		return 90
	case Frequency120:
		return 120
	case Frequency240:
		return 240
	default:
		return 0
	}
}

func (f Frequency) String() string {
	if hz := f.Hz(); hz > 0 {
		return fmt.Sprintf("%dHz", hz)
	}
	return fmt.Sprintf("frequency(0x%02x)", uint8(f))
}

func FrequencyFromHz(hz int) (Frequency, error) {
	switch hz {
	case 60:
		return Frequency60, nil
	case 90:
		return Frequency90, nil
	case 120:
		return Frequency120, nil
	case 240:
		return Frequency240, nil
	default:
		return 0, fmt.Errorf("unsupported imu frequency %dHz (want 60, 90, 120 or 240)", hz)
	}
}
