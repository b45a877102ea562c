package console

import (
	"strings"

	"vitured/pkg/device"
)

// Command is one entry of the console vocabulary.
type Command int

const (
	CmdIMUOn Command = iota + 1
	CmdIMUOff
	Cmd3D
	Cmd2D
	CmdGet3D
	CmdGetIMU
	CmdFreq60
	CmdFreq90
	CmdFreq120
	CmdFreq240
	CmdGetFreq
	CmdQuit
	CmdHelp
)

var words = map[string]Command{
	"imuon":  CmdIMUOn,
	"imuoff": CmdIMUOff,
	"3d":     Cmd3D,
	"2d":     Cmd2D,
	"get3d":  CmdGet3D,
	"getimu": CmdGetIMU,
	"fq60":   CmdFreq60,
	"fq90":   CmdFreq90,
	"fq120":  CmdFreq120,
	"fq240":  CmdFreq240,
	"getfq":  CmdGetFreq,
	"quit":   CmdQuit,
	"help":   CmdHelp,
}

// Vocabulary lists the console words in help order.
var Vocabulary = []string{
	"imuon", "imuoff", "3d", "2d", "get3d", "getimu",
	"fq60", "fq90", "fq120", "fq240", "getfq", "help", "quit",
}

func (c Command) String() string {
	for w, cmd := range words {
		if cmd == c {
			return w
		}
	}
	return "unknown"
}

// Parse maps a console line to exactly one command. The first
// whitespace-delimited token must match a vocabulary word; anything after
// it is ignored.
func Parse(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, false
	}
	cmd, ok := words[fields[0]]
	return cmd, ok
}

// Frequency returns the sample-rate code a fqNN command sets.
func (c Command) Frequency() (device.Frequency, bool) {
	switch c {
	case CmdFreq60:
		return device.Frequency60, true
	case CmdFreq90:
		return device.Frequency90, true
	case CmdFreq120:
		return device.Frequency120, true
	case CmdFreq240:
		return device.Frequency240, true
	default:
		return 0, false
	}
}
