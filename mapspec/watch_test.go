package mapspec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const watchTimeout = 5 * time.Second

func writeSpec(t *testing.T, path, name string) {
	t.Helper()
	spec := strings.Replace(fixture, "name: meadow", "name: "+name, 1)
	if err := os.WriteFile(path, []byte(spec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
}

func TestWatchMapReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meadow.yaml")
	writeSpec(t, path, "meadow")

	w, err := WatchMap(path)
	if err != nil {
		t.Fatalf("WatchMap: %v", err)
	}
	defer w.Close()

	writeSpec(t, path, "meadow_v2")
	select {
	case m := <-w.Maps:
		if m.Name() != "meadow_v2" {
			t.Fatalf("reloaded map name = %q, want meadow_v2", m.Name())
		}
	case <-time.After(watchTimeout):
		t.Fatalf("no reload delivered after a file change")
	}

	// past the debounce window, then break the file
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(path, []byte("{:::"), 0o644); err != nil {
		t.Fatalf("write broken spec: %v", err)
	}
	select {
	case err := <-w.Errors:
		if err == nil {
			t.Fatalf("nil error delivered for a broken spec")
		}
	case <-time.After(watchTimeout):
		t.Fatalf("no error delivered for a broken spec")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// double close is safe
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case _, ok := <-w.Maps:
		if ok {
			t.Fatalf("Maps delivered after Close")
		}
	case <-time.After(watchTimeout):
		t.Fatalf("Maps not closed after Close")
	}
}

func TestWatchMapIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meadow.yaml")
	writeSpec(t, path, "meadow")

	w, err := WatchMap(path)
	if err != nil {
		t.Fatalf("WatchMap: %v", err)
	}
	defer w.Close()

	writeSpec(t, filepath.Join(dir, "other.yaml"), "other")
	time.Sleep(200 * time.Millisecond)
	select {
	case m := <-w.Maps:
		t.Fatalf("sibling file change delivered map %q", m.Name())
	default:
	}

	writeSpec(t, path, "meadow_v2")
	select {
	case m := <-w.Maps:
		if m.Name() != "meadow_v2" {
			t.Fatalf("reloaded map name = %q, want meadow_v2", m.Name())
		}
	case <-time.After(watchTimeout):
		t.Fatalf("no reload delivered for the watched file")
	}
}

func TestWatchMapCloseWithUndrainedReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meadow.yaml")
	writeSpec(t, path, "meadow")

	w, err := WatchMap(path)
	if err != nil {
		t.Fatalf("WatchMap: %v", err)
	}

	// pile up reloads without ever draining Maps, then close; newer reloads
	// replace undrained ones and Close must not race the deliveries
	for i := 0; i < 5; i++ {
		writeSpec(t, path, "meadow")
		time.Sleep(120 * time.Millisecond)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	deadline := time.After(watchTimeout)
	for {
		select {
		case _, ok := <-w.Maps:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("Maps not closed after Close")
		}
	}
}
