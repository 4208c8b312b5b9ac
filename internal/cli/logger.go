package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger returns a console debug logger writing to w, or a no-op logger
// when debug is false.
func newLogger(w io.Writer, debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.DebugLevel,
	)

	return zap.New(core).Named("napkin")
}
