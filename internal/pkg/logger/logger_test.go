package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestComponentTagging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	log := Component("agent")
	log.Warn("something happened", "detail", "value")

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["component"] != "agent" {
		t.Errorf("component = %q, want agent", entry["component"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want WARN", entry["level"])
	}
	if entry["detail"] != "value" {
		t.Errorf("detail = %q, want value", entry["detail"])
	}
}

func TestEmailFieldsRedacted(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("identified", "email", "john.doe@example.com")

	out := buf.String()
	if strings.Contains(out, "john.doe@example.com") {
		t.Errorf("raw email leaked into log output: %s", out)
	}
	if !strings.Contains(out, "jo***@example.com") {
		t.Errorf("expected redacted email in output: %s", out)
	}
}

func TestEmbeddedEmailRedacted(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("raw payload", "data", "submitted by alice@foo.com today")

	if strings.Contains(buf.String(), "alice@foo.com") {
		t.Errorf("embedded email leaked: %s", buf.String())
	}
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(WARN)
	defer SetLevel(INFO)

	Debug("quiet")
	Info("also quiet")
	if buf.Len() != 0 {
		t.Errorf("expected no output below WARN, got %s", buf.String())
	}
}
