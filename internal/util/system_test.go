package util

import (
	"runtime"
	"testing"
)

func TestLogicalCores(t *testing.T) {
	cores := LogicalCores()
	if cores <= 0 {
		t.Errorf("LogicalCores() = %d, want > 0", cores)
	}
	// Should match runtime.NumCPU()
	if cores != runtime.NumCPU() {
		t.Errorf("LogicalCores() = %d, want %d (runtime.NumCPU())", cores, runtime.NumCPU())
	}
}

func TestEncodingThreads(t *testing.T) {
	threads := EncodingThreads()
	if threads < 1 {
		t.Errorf("EncodingThreads() = %d, want >= 1", threads)
	}

	logical := LogicalCores()
	if threads > logical {
		t.Errorf("EncodingThreads() = %d > LogicalCores() = %d", threads, logical)
	}
	if logical > 1 {
		want := (logical + 1) / 2
		if threads != want {
			t.Errorf("EncodingThreads() = %d, want %d for %d cores", threads, want, logical)
		}
	}
}
