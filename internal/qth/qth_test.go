package qth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyby.qth")

	want := QTH{Name: "LA1K", LatitudeDeg: 63.42, LongitudeDeg: 10.39, AltitudeM: 130}
	if err := ToFile(path, want); err != nil {
		t.Fatalf("ToFile: %v", err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if got.Name != want.Name || got.AltitudeM != want.AltitudeM {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if diff := got.LatitudeDeg - want.LatitudeDeg; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("latitude mismatch: got %v, want %v", got.LatitudeDeg, want.LatitudeDeg)
	}
	if diff := got.LongitudeDeg - want.LongitudeDeg; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("longitude mismatch: got %v, want %v", got.LongitudeDeg, want.LongitudeDeg)
	}
}

func TestFromFileLongitudeSignConvention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyby.qth")
	// On-disk format is west-positive; an east-of-Greenwich station (e.g.
	// Trondheim, Norway) should load as a positive LongitudeDeg.
	content := "LA1K\n 63.42\n -10.39\n 130\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if got.LongitudeDeg <= 0 {
		t.Fatalf("expected positive (east) longitude, got %v", got.LongitudeDeg)
	}
}

func TestFromFileAltitudeIsNotAngleConverted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyby.qth")
	content := "LA1K\n 63.42\n -10.39\n 500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if got.AltitudeM != 500 {
		t.Fatalf("AltitudeM = %d, want 500 (no degrees-to-radians scaling)", got.AltitudeM)
	}
}

func TestFromSearchPathsPrefersConfigHome(t *testing.T) {
	home := t.TempDir()
	sysDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", sysDir)

	mustMkdirAll(t, filepath.Join(home, "flyby"))
	mustMkdirAll(t, filepath.Join(sysDir, "flyby"))

	writeQTH(t, filepath.Join(home, "flyby", "flyby.qth"), "HOME", 1, 1, 1)
	writeQTH(t, filepath.Join(sysDir, "flyby", "flyby.qth"), "SYS", 2, 2, 2)

	got, state, err := FromSearchPaths()
	if err != nil {
		t.Fatalf("FromSearchPaths: %v", err)
	}
	if state != FileHome {
		t.Fatalf("state = %v, want FileHome", state)
	}
	if got.Name != "HOME" {
		t.Fatalf("got.Name = %q, want HOME", got.Name)
	}
}

func TestFromSearchPathsFallsBackToSystemwide(t *testing.T) {
	home := t.TempDir()
	sysDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", sysDir)

	mustMkdirAll(t, filepath.Join(sysDir, "flyby"))
	writeQTH(t, filepath.Join(sysDir, "flyby", "flyby.qth"), "SYS", 2, 2, 2)

	got, state, err := FromSearchPaths()
	if err != nil {
		t.Fatalf("FromSearchPaths: %v", err)
	}
	if state != FileSystemwide {
		t.Fatalf("state = %v, want FileSystemwide", state)
	}
	if got.Name != "SYS" {
		t.Fatalf("got.Name = %q, want SYS", got.Name)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%q): %v", path, err)
	}
}

func writeQTH(t *testing.T, path, name string, lat, lonWest float64, alt int) {
	t.Helper()
	content := fmt.Sprintf("%s\n %g\n %g\n %d\n", name, lat, lonWest, alt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
