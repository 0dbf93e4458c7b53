package config

import (
	"os"
	"testing"
)

func TestInitialize_TableDriven(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"invalid", "notalevel"},
	}

	defer func() {
		_ = os.RemoveAll("./logs")
	}()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Initialize(tt.level)
			if err != nil {
				t.Fatalf("Initialize(%q) returned error: %v", tt.level, err)
			}
			if logger == nil {
				t.Fatalf("Initialize(%q) returned nil logger", tt.level)
			}
			// flush
			_ = logger.Sync()
		})
	}
}
