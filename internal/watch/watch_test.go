package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { callCount.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncerDefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestWatcherDetectsFileChange(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changed bool

	w, err := New(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() {
			mu.Lock()
			changed = true
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(tmpFile, []byte("s,t\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	got := changed
	mu.Unlock()
	if !got {
		t.Error("expected change to be detected")
	}
}

func TestWatcherPollingFallback(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changed bool

	w, err := New(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(func() {
			mu.Lock()
			changed = true
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(tmpFile, []byte("s,t\nA,B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	got := changed
	mu.Unlock()
	if !got {
		t.Error("expected change to be detected via polling")
	}
}

func TestWatcherChangedChannel(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(tmpFile, []byte("s,t\nA,B\n"), 0o644)
	}()

	select {
	case <-w.Changed():
	case <-time.After(500 * time.Millisecond):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcherEnvForcePolling(t *testing.T) {
	t.Setenv("HMAP_FORCE_POLLING", "1")

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(tmpFile, WithDebounceDuration(10*time.Millisecond), WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to be in polling mode when HMAP_FORCE_POLLING is set")
	}
}

func TestWatcherRemoteFilesystemUsesPolling(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := New(tmpFile, WithDebounceDuration(10*time.Millisecond), WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to use polling on a remote filesystem")
	}
	if got := w.FilesystemType(); got != FSTypeNFS {
		t.Fatalf("expected filesystem type %v, got %v", FSTypeNFS, got)
	}
}

func TestWatcherFileRemoved(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var gotErr error

	w, err := New(tmpFile,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			mu.Lock()
			gotErr = err
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	got := gotErr
	mu.Unlock()
	if got != ErrFileRemoved {
		t.Errorf("expected ErrFileRemoved, got %v", got)
	}
}

func TestWatcherStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "edges.csv")
	if err := os.WriteFile(tmpFile, []byte("s,t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(tmpFile)
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Fatal("expected watcher not started before Start")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Fatal("expected watcher started after Start")
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted on double Start, got %v", err)
	}
	w.Stop()
	if w.IsStarted() {
		t.Fatal("expected watcher stopped after Stop")
	}
	w.Stop()
}

func TestFilesystemTypeString(t *testing.T) {
	cases := []struct {
		fsType   FilesystemType
		expected string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeSSHFS, "sshfs"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.fsType.String(); got != tc.expected {
			t.Errorf("FilesystemType(%d).String() = %q, expected %q", tc.fsType, got, tc.expected)
		}
	}
}

func TestDetectFilesystemTypeEmptyPath(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("DetectFilesystemType(\"\") = %v, expected FSTypeUnknown", got)
	}
}

func TestDetectFilesystemTypeNonExistentPath(t *testing.T) {
	nonExistent := filepath.Join(t.TempDir(), "does", "not", "exist")
	_ = DetectFilesystemType(nonExistent)
}

func TestIsRemoteFilesystem(t *testing.T) {
	remote := []FilesystemType{FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE}
	for _, fsType := range remote {
		if !isRemoteFilesystem(fsType) {
			t.Errorf("expected %v to be remote", fsType)
		}
	}
	local := []FilesystemType{FSTypeUnknown, FSTypeLocal}
	for _, fsType := range local {
		if isRemoteFilesystem(fsType) {
			t.Errorf("expected %v not to be remote", fsType)
		}
	}
}
