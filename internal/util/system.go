package util

import (
	"runtime"
)

// LogicalCores returns the number of logical CPU cores (includes hyperthreads).
// This is equivalent to runtime.NumCPU().
func LogicalCores() int {
	return runtime.NumCPU()
}

// EncodingThreads returns the thread count handed to preview encodes:
// half the logical cores, rounded up, never below 1.
func EncodingThreads() int {
	cores := LogicalCores()
	if cores <= 1 {
		return 1
	}
	return (cores + 1) / 2
}
