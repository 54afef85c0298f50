package xdg

import (
	"path/filepath"
	"testing"
)

func TestDataHomeDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/station")

	if got, want := DataHome(), filepath.Join("/home/station", ".local/share"); got != want {
		t.Fatalf("DataHome() = %q, want %q", got, want)
	}
}

func TestDataHomeOverride(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got, want := DataHome(), "/custom/data"; got != want {
		t.Fatalf("DataHome() = %q, want %q", got, want)
	}
}

func TestDataDirsDefault(t *testing.T) {
	t.Setenv("XDG_DATA_DIRS", "")
	got := DataDirs()
	want := []string{"/usr/local/share/", "/usr/share/"}
	if len(got) != len(want) {
		t.Fatalf("DataDirs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DataDirs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDataTLEDirsPrecedenceOrder(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/home/station/.local/share")
	t.Setenv("XDG_DATA_DIRS", "/opt/a:/opt/b")

	got := DataTLEDirs()
	want := []string{
		filepath.Join("/home/station/.local/share", TLERelativeDir),
		filepath.Join("/opt/a", TLERelativeDir),
		filepath.Join("/opt/b", TLERelativeDir),
	}
	if len(got) != len(want) {
		t.Fatalf("DataTLEDirs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DataTLEDirs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
