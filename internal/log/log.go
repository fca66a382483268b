package log

import (
	"fmt"
	"path/filepath"

	"github.com/cihub/seelog"
)

var logger seelog.LoggerInterface

func init() {
	// disabled until Init is called, so library use stays silent
	logger = seelog.Disabled
}

// Init configures the logging framework. Logging goes to a rolling file in
// logDir (if non-empty) and to the console (if console is true). The level
// must be one of trace, debug, info, warn, error or critical.
func Init(level, logDir string, console bool) error {
	if _, found := seelog.LogLevelFromString(level); !found {
		return fmt.Errorf("log: level %q is invalid", level)
	}
	consoleOut := ""
	if console {
		consoleOut = "<console />"
	}
	fileOut := ""
	if logDir != "" {
		fileOut = fmt.Sprintf("<rollingfile type=\"size\" filename=%q maxsize=\"10485760\" maxrolls=\"3\" />",
			filepath.Join(logDir, "chat-app.log"))
	}
	config := fmt.Sprintf(`
<seelog minlevel="%s">
	<outputs formatid="all">
		%s
		%s
	</outputs>
	<formats>
		<format id="all" format="%%UTCDate %%UTCTime [%%LEV] %%Msg%%n" />
	</formats>
</seelog>`, level, consoleOut, fileOut)
	l, err := seelog.LoggerFromConfigAsString(config)
	if err != nil {
		return err
	}
	l.SetAdditionalStackDepth(1)
	UseLogger(l)
	return nil
}

// UseLogger replaces the active logger. Use this if the embedding
// application already configures seelog itself.
func UseLogger(l seelog.LoggerInterface) {
	logger = l
}

// Flush flushes all buffered log messages.
func Flush() {
	logger.Flush()
}

// Critical logs at critical level and returns the message as an error, so
// call sites can write panic(log.Critical(...)).
func Critical(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Critical(err)
			return err
		}
	}
	return logger.Critical(v...)
}

// Criticalf logs a formatted message at critical level and returns it as an
// error.
func Criticalf(format string, params ...interface{}) error {
	return logger.Criticalf(format, params...)
}

// Error logs at error level and returns the message as an error, so call
// sites can write return log.Error(err).
func Error(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Error(err)
			return err
		}
	}
	return logger.Error(v...)
}

// Errorf logs a formatted message at error level and returns it as an error.
func Errorf(format string, params ...interface{}) error {
	return logger.Errorf(format, params...)
}

// Warn logs at warn level and returns the message as an error.
func Warn(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Warn(err)
			return err
		}
	}
	return logger.Warn(v...)
}

// Warnf logs a formatted message at warn level and returns it as an error.
func Warnf(format string, params ...interface{}) error {
	return logger.Warnf(format, params...)
}

// Info logs at info level.
func Info(v ...interface{}) {
	logger.Info(v...)
}

// Infof logs a formatted message at info level.
func Infof(format string, params ...interface{}) {
	logger.Infof(format, params...)
}

// Debug logs at debug level.
func Debug(v ...interface{}) {
	logger.Debug(v...)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, params ...interface{}) {
	logger.Debugf(format, params...)
}
