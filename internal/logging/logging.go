package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
)

// Log levels constants.
const (
	None = iota
	Error
	Warning
	Info
	Debug
)

var currentLevel atomic.Int32                                              // Stores the current logging level atomically.
var logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds) // Global logger instance.

func init() {
	// Default log level is Info.
	currentLevel.Store(Info)
}

// SetLevel atomically sets the global logging level.
// It clamps the input level to the valid range [None, Debug].
func SetLevel(level int) {
	if level < None {
		level = None
	} else if level > Debug {
		level = Debug
	}
	currentLevel.Store(int32(level))
	// Announce the change only when the new level is Debug, to avoid noise.
	if level >= Debug {
		logf(Debug, "Log level set to %d", level)
	}
}

// GetLevel atomically retrieves the current logging level.
func GetLevel() int {
	return int(currentLevel.Load())
}

// ParseLevel converts a log level string (case-insensitive) to its integer representation.
// Returns Info level and an error if the string is invalid.
func ParseLevel(levelStr string) (int, error) {
	switch strings.ToLower(levelStr) {
	case "none":
		return None, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		// Return Info level as default on parse failure, along with an error.
		return Info, fmt.Errorf("invalid log level string: '%s'", levelStr)
	}
}

// SetupLogging configures the logging level based on an input string.
// Logs a warning and uses Info level if the input string is invalid.
// Returns the finally set log level.
func SetupLogging(levelStr string) int {
	level, err := ParseLevel(levelStr)
	if err != nil {
		logf(Warning, "Invalid log level '%s' provided, defaulting to 'info'. Error: %v", levelStr, err)
	}
	SetLevel(level)
	return level
}

// SetOutput changes the output destination of the global logger.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// logf is the internal logging function that handles level checking and formatting.
func logf(level int, format string, v ...interface{}) {
	if int32(level) > currentLevel.Load() {
		return
	}

	var levelPrefix string
	switch level {
	case Error:
		levelPrefix = "[ERROR] "
	case Warning:
		levelPrefix = "[WARN] "
	case Info:
		levelPrefix = "[INFO] "
	case Debug:
		levelPrefix = "[DEBUG] "
	default:
		levelPrefix = "[UNKN] "
	}

	fullPrefix := levelPrefix

	// At Debug level, prepend file:line:function of the Logf caller.
	if level == Debug {
		pc, file, line, ok := runtime.Caller(2)
		if ok {
			funcName := "???"
			if f := runtime.FuncForPC(pc); f != nil {
				funcName = filepath.Base(f.Name())
			}
			fullPrefix = fmt.Sprintf("%s%s:%d:%s ", levelPrefix, filepath.Base(file), line, funcName)
		} else {
			fullPrefix = fmt.Sprintf("%s???:0:??? ", levelPrefix)
		}
	}

	message := fmt.Sprintf(format, v...)
	logger.Println(fullPrefix + message)
}

// Logf logs a formatted message if the specified level is enabled according to the global setting.
// This is the public logging function intended for use by other packages.
func Logf(level int, format string, v ...interface{}) {
	logf(level, format, v...)
}
