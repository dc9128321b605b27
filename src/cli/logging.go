// Contains various utility functions related to logging.

package cli

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("cli")

// StdErrIsATerminal is true if the process' stderr is an interactive TTY.
var StdErrIsATerminal = term.IsTerminal(int(os.Stderr.Fd()))

// A Verbosity is used as a flag to define logging verbosity. It's a small integer
// (0 = warnings only, higher numbers mean more output) that also accepts the
// logging package's level names directly, so both "-v 2" and "-v debug" work.
type Verbosity logging.Level

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (v *Verbosity) UnmarshalFlag(in string) error {
	if n, err := strconv.Atoi(in); err == nil {
		switch {
		case n <= 0:
			*v = Verbosity(logging.WARNING)
		case n == 1:
			*v = Verbosity(logging.NOTICE)
		case n == 2:
			*v = Verbosity(logging.INFO)
		default:
			*v = Verbosity(logging.DEBUG)
		}
		return nil
	}
	level, err := logging.LogLevel(in)
	if err != nil {
		return flagsError(fmt.Errorf("unknown verbosity %q", in))
	}
	*v = Verbosity(level)
	return nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (v *Verbosity) UnmarshalText(text []byte) error {
	return v.UnmarshalFlag(string(text))
}

// InitLogging initialises the logging backend at the given verbosity, formatting
// to stderr. Unlike the teacher's interactive build display, globwalk is a
// one-shot CLI, so there is no window-resize-driven scrollback to maintain here.
func InitLogging(verbosity Verbosity) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logFormatter(StdErrIsATerminal))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.Level(verbosity), "")
	logging.SetBackend(leveled)
}

func logFormatter(coloured bool) logging.Formatter {
	formatStr := "%{time:15:04:05.000} %{level:7s}: %{message}"
	if coloured {
		formatStr = "%{color}" + formatStr + "%{color:reset}"
	}
	return logging.MustStringFormatter(formatStr)
}
