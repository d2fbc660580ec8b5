package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenStdIOLog(t *testing.T) {
	if f, err := openStdIOLog(""); f != nil || err != nil {
		t.Fatalf("empty path = %v, %v", f, err)
	}

	path := filepath.Join(t.TempDir(), "stdio.log")
	for i := 0; i < 2; i++ {
		f, err := openStdIOLog(path)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "=== rainmaker pid"); n != 2 {
		t.Errorf("got %d run markers, want 2 (appending):\n%s", n, data)
	}
}
