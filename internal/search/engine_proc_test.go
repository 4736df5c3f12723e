package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// mockEngineScript speaks the engine line protocol: handshake, state, go,
// stop, quit.
const mockEngineScript = `#!/bin/sh
while read -r line; do
	case "$line" in
		fp) echo "fpok" ;;
		isready) echo "readyok" ;;
		state*) ;;
		go*)
			echo "option earthquake 70 35.5"
			echo "option swordsdance 30 12.0"
			echo "done 100"
			;;
		stop) ;;
		quit) exit 0 ;;
	esac
done
`

func writeMockEngine(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("mock engine script needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "mock-engine")
	if err := os.WriteFile(path, []byte(mockEngineScript), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessEngineSearch(t *testing.T) {
	e, err := NewProcessEngine(writeMockEngine(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	res, err := e.Search(context.Background(), "format=gen9ou;turn=1", 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalVisits != 100 {
		t.Errorf("total visits = %d", res.TotalVisits)
	}
	if len(res.Options) != 2 {
		t.Fatalf("options = %+v", res.Options)
	}
	if res.Options[0].Move != "earthquake" || res.Options[0].Visits != 70 {
		t.Errorf("option 0 = %+v", res.Options[0])
	}
	if res.Options[0].TotalScore != 35.5 {
		t.Errorf("option 0 score = %f", res.Options[0].TotalScore)
	}

	// The engine stays usable across searches.
	if _, err := e.Search(context.Background(), "format=gen9ou;turn=2", 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
}

func TestProcessEngineSearchAfterClose(t *testing.T) {
	e, err := NewProcessEngine(writeMockEngine(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Search(context.Background(), "s", 10*time.Millisecond); err == nil {
		t.Error("search on a closed engine succeeded")
	}
}

// silentEngineScript answers the handshake but never produces a search
// result, forcing the caller to give up on its own.
const silentEngineScript = `#!/bin/sh
while read -r line; do
	case "$line" in
		fp) echo "fpok" ;;
		isready) echo "readyok" ;;
		quit) exit 0 ;;
	esac
done
`

func TestProcessEngineSearchContextCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mock engine script needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "silent-engine")
	if err := os.WriteFile(path, []byte(silentEngineScript), 0o755); err != nil {
		t.Fatal(err)
	}
	e, err := NewProcessEngine(path)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.Search(ctx, "s", 5*time.Second); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}

	// The abandoned reader goroutine still owns the output stream, so the
	// engine must refuse further searches.
	if _, err := e.Search(context.Background(), "s", 10*time.Millisecond); err == nil {
		t.Error("search on an abandoned engine succeeded")
	}
}

func TestProcessEngineBadBinary(t *testing.T) {
	if _, err := NewProcessEngine(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing binary accepted")
	}
}
