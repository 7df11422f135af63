package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fiolab/fio-fetcher/pkg/logger/output"
)

// logStreamLimit bounds the in-memory tail of log lines kept for the /logs endpoint.
const logStreamLimit = 100

type Logger struct {
	*zap.Logger
	mu sync.Mutex
	ch output.LimitedChanWriter
}

func New(debug bool) *Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	ch := output.NewLimitedChanWriter(logStreamLimit)

	consoleEncoder := zapcore.NewConsoleEncoder(config)
	defaultEncoder := consoleEncoder

	defaultLogLevel := zapcore.DebugLevel

	if !debug {
		defaultLogLevel = zapcore.InfoLevel
		defaultEncoder = zapcore.NewJSONEncoder(config)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(ch), defaultLogLevel),
		zapcore.NewCore(defaultEncoder, zapcore.AddSync(os.Stdout), defaultLogLevel),
	)

	return &Logger{
		Logger: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
		ch:     ch,
	}
}

// Recent returns the buffered tail of emitted log lines, oldest first. The
// buffer is left intact so repeated and concurrent reads see the same tail.
func (l *Logger) Recent() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]string, 0, len(l.ch))
	for {
		select {
		case line := <-l.ch:
			lines = append(lines, line)
		default:
			for _, line := range lines {
				select {
				case l.ch <- line:
				default:
				}
			}

			return lines
		}
	}
}
