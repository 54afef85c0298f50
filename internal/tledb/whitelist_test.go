package tledb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWhitelistIdempotence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyby.whitelist")
	if err := os.WriteFile(path, []byte("25544\n33591\n\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	db := &Database{Entries: []Entry{
		{SatelliteNumber: 25544},
		{SatelliteNumber: 33591},
		{SatelliteNumber: 99999},
	}}

	if err := LoadWhitelistFromFile(path, db); err != nil {
		t.Fatalf("LoadWhitelistFromFile: %v", err)
	}
	first := enabledSet(db)

	if err := LoadWhitelistFromFile(path, db); err != nil {
		t.Fatalf("LoadWhitelistFromFile (second): %v", err)
	}
	second := enabledSet(db)

	if len(first) != len(second) {
		t.Fatalf("enabled set changed across repeated loads: %v vs %v", first, second)
	}
	for k := range first {
		if !second[k] {
			t.Fatalf("enabled set changed across repeated loads: %v vs %v", first, second)
		}
	}
	if !first[25544] || !first[33591] || first[99999] {
		t.Fatalf("unexpected enabled set: %v", first)
	}
}

func enabledSet(db *Database) map[int64]bool {
	out := map[int64]bool{}
	for _, e := range db.Entries {
		if e.Enabled {
			out[e.SatelliteNumber] = true
		}
	}
	return out
}

func TestWriteWhitelistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyby.whitelist")

	db := &Database{Entries: []Entry{
		{SatelliteNumber: 1, Enabled: true},
		{SatelliteNumber: 2, Enabled: false},
		{SatelliteNumber: 3, Enabled: true},
	}}
	if err := WriteWhitelistToFile(path, db); err != nil {
		t.Fatalf("WriteWhitelistToFile: %v", err)
	}

	reloaded := &Database{Entries: []Entry{
		{SatelliteNumber: 1},
		{SatelliteNumber: 2},
		{SatelliteNumber: 3},
	}}
	if err := LoadWhitelistFromFile(path, reloaded); err != nil {
		t.Fatalf("LoadWhitelistFromFile: %v", err)
	}
	if !reloaded.Entries[0].Enabled || reloaded.Entries[1].Enabled || !reloaded.Entries[2].Enabled {
		t.Fatalf("round trip mismatch: %+v", reloaded.Entries)
	}
}
