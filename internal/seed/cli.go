package seed

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/gigrank/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stdout, teeing into logFile
// when it is set. The returned close function releases the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "" {
		if err := logger.InitWithOptions(logger.Options{Level: level}); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	opts := logger.Options{Level: level, Output: io.MultiWriter(os.Stdout, file)}
	if err := logger.InitWithOptions(opts); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}
