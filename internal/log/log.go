package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

func init() {
	zerolog.DurationFieldUnit = time.Microsecond
	zerolog.ErrorFieldName = "error"
	zerolog.ErrorStackFieldName = "stack-trace"
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.TimestampFieldName = "timestamp"
}

// writers returns stdout plus a rotating file at path. An empty path logs to
// stdout only.
func writers(path string) []io.Writer {
	out := []io.Writer{os.Stdout}
	if path == "" {
		return out
	}
	return append(out, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
}

// InitLogger builds the process logger once. Later calls return the same
// logger regardless of path.
func InitLogger(path string) zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(zerolog.MultiLevelWriter(writers(path)...)).
			Level(zerolog.InfoLevel).
			Hook(AttachTraceIDFromContext()).
			With().
			Timestamp().
			Caller().
			Stack().
			Int("pid", os.Getpid()).
			Logger()

		logger.Info().
			Str(KeyTag, "InitLogger").
			Str("log_file", path).
			Msg("initialized logger")
	})
	return logger
}

// LevelForEnv returns the level used for an application environment.
func LevelForEnv(env string) zerolog.Level {
	switch env {
	case "development", "local":
		return zerolog.TraceLevel
	case "test":
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
