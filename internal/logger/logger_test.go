package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_DevelopmentLevel(t *testing.T) {
	log, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()

	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should enable debug level")
	}
}

func TestNew_ProductionLevel(t *testing.T) {
	log, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()

	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not enable debug level")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should enable info level")
	}
}

func TestNamed_NilBase(t *testing.T) {
	log := Named(nil, "engine")
	if log == nil {
		t.Fatal("Named(nil) should return a usable nop logger")
	}
	log.Info("must not panic")
}

func TestMust_DoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Must panicked: %v", r)
		}
	}()
	Must(true).Sync()
}
