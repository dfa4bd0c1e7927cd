// Package logging builds the application logger. The terminal UI owns
// stdout, so output goes to a rotating log file and to the UI log pane.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName string
	MaxSizeMB   int
	MaxBackups  int
	// UILines receives every complete log line; nil disables the UI pane
	UILines chan<- string
}

// Setup returns the logger and a closer for the log file. With an empty file
// name only the UI channel is written.
func Setup(params LoggerSetupParams) (*log.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if params.LogFileName != "" {
		if !strings.HasSuffix(params.LogFileName, ".log") {
			params.LogFileName += ".log"
		}
		if err := os.MkdirAll(filepath.Dir(params.LogFileName), 0o755); err != nil {
			return nil, nil, err
		}

		lumberJackLogger := &lumberjack.Logger{
			Filename:   params.LogFileName,
			MaxSize:    params.MaxSizeMB, // megabytes
			MaxBackups: params.MaxBackups,
			LocalTime:  true,
			Compress:   true,
		}
		writers = append(writers, lumberJackLogger)
		closer = lumberJackLogger
	}

	if params.UILines != nil {
		writers = append(writers, NewChannelWriter(params.UILines))
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = NewCombinedWriter(writers...)
	}

	return log.New(out, "", log.Ltime), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
