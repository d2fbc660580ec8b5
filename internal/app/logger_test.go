package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFileLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileLogger(&buf)
	l.Infof("matrix", "cycle %d", 7)
	l.Errorf("web", "listen: %v", "busy")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	tests := []struct {
		line string
		want string
	}{
		{lines[0], " [INFO] matrix: cycle 7"},
		{lines[1], " [ERROR] web: listen: busy"},
	}
	for _, tt := range tests {
		stamp, rest, ok := strings.Cut(tt.line, " ")
		if !ok || " "+rest != tt.want {
			t.Errorf("line = %q, want suffix %q", tt.line, tt.want)
		}
		if _, err := time.Parse(time.RFC3339, stamp); err != nil {
			t.Errorf("timestamp %q: %v", stamp, err)
		}
	}
}
