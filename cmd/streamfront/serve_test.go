package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"streamfront/config"
)

func TestAcquireServerLockIsExclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := acquireServerLock(dir)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := acquireServerLock(dir); err == nil {
		t.Fatal("expected second lock on the same directory to fail")
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	again, err := acquireServerLock(dir)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again.Unlock()
}

func TestConfigureLoggingWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "logs", "streamfront.log")
	closer := configureLogging(config.Logging{File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	log.Printf("[server] hello from the test")
	if err := closer.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte("hello from the test")) {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestConfigureLoggingWithoutFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	closer := configureLogging(config.Logging{})
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if log.Writer() != os.Stderr {
		t.Fatal("expected the standard logger to write to stderr")
	}
}
