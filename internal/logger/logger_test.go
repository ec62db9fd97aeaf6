package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWritersFromDir(t *testing.T) {
	dir := t.TempDir()
	c := Config{Dir: dir}
	outW, errW, err := c.Writers("alpha")
	if err != nil {
		t.Fatalf("Writers: %v", err)
	}
	if outW == nil || errW == nil {
		t.Fatalf("expected both writers when dir is set")
	}
	defer func() { _ = outW.Close(); _ = errW.Close() }()

	if _, err := outW.Write([]byte("stdout line\n")); err != nil {
		t.Fatalf("write stdout: %v", err)
	}
	if _, err := errW.Write([]byte("stderr line\n")); err != nil {
		t.Fatalf("write stderr: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "alpha.stdout.log")); err != nil {
		t.Fatalf("stdout file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "alpha.stderr.log")); err != nil {
		t.Fatalf("stderr file missing: %v", err)
	}
}

func TestWritersExplicitPathsWin(t *testing.T) {
	dir := t.TempDir()
	c := Config{
		Dir:        dir,
		StdoutPath: filepath.Join(dir, "custom.out"),
	}
	outW, errW, err := c.Writers("alpha")
	if err != nil {
		t.Fatalf("Writers: %v", err)
	}
	defer func() { _ = outW.Close(); _ = errW.Close() }()

	if _, err := outW.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "custom.out")); err != nil {
		t.Fatalf("explicit stdout path not used: %v", err)
	}
}

func TestWritersDisabledWithoutDestination(t *testing.T) {
	outW, errW, err := Config{}.Writers("alpha")
	if err != nil {
		t.Fatalf("Writers: %v", err)
	}
	if outW != nil || errW != nil {
		t.Fatalf("no destination must yield nil writers")
	}
}

func TestValOr(t *testing.T) {
	if got := valOr(0, DefaultMaxSizeMB); got != DefaultMaxSizeMB {
		t.Fatalf("valOr(0) = %d", got)
	}
	if got := valOr(42, DefaultMaxSizeMB); got != 42 {
		t.Fatalf("valOr(42) = %d", got)
	}
}
