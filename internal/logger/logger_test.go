package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	if err := Init(Config{DataDir: dataDir}); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dataDir, "logs")); os.IsNotExist(err) {
		t.Errorf("log directory was not created")
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("default level = %v, want %v", Logger.GetLevel(), log.WarnLevel)
	}

	Debug("debug message")
	Info("info message")
	Warn("warning message")
	Error("error message")
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{name: "default", cfg: Config{}, want: log.WarnLevel},
		{name: "debug flag wins", cfg: Config{Debug: true, Level: "error"}, want: log.DebugLevel},
		{name: "explicit info", cfg: Config{Level: "info"}, want: log.InfoLevel},
		{name: "upper case", cfg: Config{Level: "ERROR"}, want: log.ErrorLevel},
		{name: "unknown falls back", cfg: Config{Level: "chatty"}, want: log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelFor(tt.cfg); got != tt.want {
				t.Errorf("levelFor(%+v) = %v, want %v", tt.cfg, got, tt.want)
			}
		})
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	Debug("debug message")
	Info("info message")
	Warn("warning message")
	Error("error message")

	if Component("sync") == nil {
		t.Error("Component() returned nil without an initialized logger")
	}
}
