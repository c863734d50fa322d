package logging

import "testing"

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) should return a usable logger")
	}

	logger := Nop()
	if OrNop(logger) != logger {
		t.Fatal("OrNop should pass through a non-nil logger")
	}

	// Must not panic.
	OrNop(nil).Info("message %d", 1)
}

func TestComponentLoggerWrites(t *testing.T) {
	logger := NewComponentLogger("test-component")
	logger.SetLevel(DEBUG)
	logger.Debug("debug line %s", "a")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")
}
