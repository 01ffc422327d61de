package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/pidlab/internal/config"
)

func newTestCommand(t *testing.T) *cobra.Command {
	t.Helper()
	configFile, preset, logLevel = "", "", config.DefaultLogLevel
	t.Cleanup(func() { configFile, preset, logLevel = "", "", config.DefaultLogLevel })

	cmd := &cobra.Command{Use: "test"}
	addGainFlags(cmd)
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "")
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd := newTestCommand(t)

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidlab.yaml")
	fileCfg := config.DefaultConfig()
	fileCfg.Controller.Reference = 200
	fileCfg.Controller.Ki = 0.3
	fileCfg.Plant.Load = -2
	if err := config.Save(path, fileCfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cmd := newTestCommand(t)
	configFile = path
	preset = "damped"
	if err := cmd.Flags().Set("kp", "0.4"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	// the preset replaces the file's controller and load, the flag beats both
	if cfg.Controller.Reference != 300 {
		t.Errorf("expected preset reference 300, got %v", cfg.Controller.Reference)
	}
	if cfg.Controller.Ki != 0 {
		t.Errorf("expected preset ki 0, got %v", cfg.Controller.Ki)
	}
	if cfg.Controller.Kd != 0.025 {
		t.Errorf("expected preset kd 0.025, got %v", cfg.Controller.Kd)
	}
	if cfg.Controller.Kp != 0.4 {
		t.Errorf("expected flag kp 0.4, got %v", cfg.Controller.Kp)
	}
	if cfg.Plant.Load != 0 {
		t.Errorf("expected preset load 0, got %v", cfg.Plant.Load)
	}
}

func TestLoadConfigUnsetFlagsKeepFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidlab.yaml")
	fileCfg := config.DefaultConfig()
	fileCfg.Controller.Kd = 0.05
	if err := config.Save(path, fileCfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cmd := newTestCommand(t)
	configFile = path

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Controller.Kd != 0.05 {
		t.Errorf("expected file kd 0.05, got %v", cfg.Controller.Kd)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("unknown preset", func(t *testing.T) {
		cmd := newTestCommand(t)
		preset = "nope"
		if _, err := loadConfig(cmd); err == nil {
			t.Error("expected error for unknown preset")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cmd := newTestCommand(t)
		configFile = filepath.Join(t.TempDir(), "missing.yaml")
		if _, err := loadConfig(cmd); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		cmd := newTestCommand(t)
		if err := cmd.Flags().Set("log-level", "loud"); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(cmd); err == nil {
			t.Error("expected validation error for log level")
		}
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		debugOn   bool
		infoOn    bool
		warnOn    bool
		expectErr bool
	}{
		{level: "debug", debugOn: true, infoOn: true, warnOn: true},
		{level: "info", infoOn: true, warnOn: true},
		{level: "warn", warnOn: true},
		{level: "error"},
		{level: "loud", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.level, "")
			if tt.expectErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newLogger failed: %v", err)
			}

			core := logger.Desugar().Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.infoOn {
				t.Errorf("info enabled = %v, want %v", got, tt.infoOn)
			}
			if got := core.Enabled(zapcore.WarnLevel); got != tt.warnOn {
				t.Errorf("warn enabled = %v, want %v", got, tt.warnOn)
			}
		})
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidlab.log")

	logger, err := newLogger("info", path)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	logger.Infof("session started at tick %d", 0)
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log output in file")
	}
	if got := string(data); !strings.Contains(got, "session started at tick 0") || strings.Contains(got, "hidden") {
		t.Errorf("unexpected log contents: %q", got)
	}
}
