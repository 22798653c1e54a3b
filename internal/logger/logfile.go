package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
)

// logFileTimeLayout names one log file per bootstrapper run.
const logFileTimeLayout = "20060102_150405"

// OpenRunLogFile creates a timestamped log file under dir, creating the
// directory when missing, and returns a write syncer suitable for New.
// The caller owns the file handle and should close it on shutdown.
func OpenRunLogFile(dir string) (zapcore.WriteSyncer, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("bootstrapper_%s.log", time.Now().Format(logFileTimeLayout))

	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("create log file: %w", err)
	}

	return zapcore.AddSync(file), file, nil
}
