package observability

import "testing"

func TestNewLoggerValidLevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		for _, format := range []string{"console", "json"} {
			logger, err := NewLogger(level, format)
			if err != nil {
				t.Fatalf("NewLogger(%q, %q) returned error: %v", level, format, err)
			}
			if logger == nil {
				t.Fatalf("NewLogger(%q, %q) returned nil logger", level, format)
			}
			_ = logger.Sync()
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("verbose", "console"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Fatal("expected an error for an unknown log format")
	}
}
