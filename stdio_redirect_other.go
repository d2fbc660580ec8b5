//go:build !unix

package main

import "os"

// Runtime panics still go to the original stderr here; only Go-level writes move.
func redirectStdIO(path string) error {
	f, err := openStdIOLog(path)
	if err != nil || f == nil {
		return err
	}
	os.Stdout = f
	os.Stderr = f
	return nil
}
