package proctable

import (
	"context"
	"os"
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestSnapshotIncludesCurrentProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	procs, err := Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	pid := os.Getpid()
	for _, p := range procs {
		if p.ID != pid {
			continue
		}
		if p.ParentID != os.Getppid() {
			t.Fatalf("expected parent %d, got %d", os.Getppid(), p.ParentID)
		}
		if p.User == "" {
			t.Fatalf("expected a user for the current process")
		}
		if p.Command == "" {
			t.Fatalf("expected a command line for the current process")
		}
		if p.Children != nil {
			t.Fatalf("expected children to be left for the tree builder")
		}
		return
	}
	t.Fatalf("current process %d missing from snapshot of %d processes", pid, len(procs))
}

func TestSearchPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path list separator differs on windows")
	}
	got := SearchPath("/usr/local/bin:/usr/bin::/bin")
	want := []string{"/usr/local/bin", "/usr/bin", "", "/bin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SearchPath = %q, want %q", got, want)
	}
	if SearchPath("") != nil {
		t.Fatalf("expected nil for empty PATH")
	}
}
