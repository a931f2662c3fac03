package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"", "debug", "warn"} {
		logger, err := New(level)
		if err != nil {
			t.Fatalf("New(%q): unexpected error: %v", level, err)
		}
		if logger == nil {
			t.Fatalf("New(%q): expected logger instance", level)
		}
		_ = logger.Sync()
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
