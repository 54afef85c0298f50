package tledb

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	issName  = "ISS (ZARYA)"
	issL1Old = "1 25544U 98067A   23001.50000000  .00016717  00000-0  10270-3 0  9008"
	issL2    = "2 25544  51.6416 339.8873 0005502  69.1293 102.6616 15.49875532370122"
	issL1New = "1 25544U 98067A   23050.50000000  .00016717  00000-0  10270-3 0  9002"

	noaaName = "NOAA 19"
	noaaL1   = "1 33591U 09005A   23001.50000000  .00000100  00000-0  73989-4 0  9997"
	noaaL2   = "2 33591  99.1943 100.3456 0013956  80.1234 280.1234 14.12345678700120"
)

func writeTLEFile(t *testing.T, dir, filename string, records [][3]string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	var content string
	for _, r := range records {
		content += r[0] + "\n" + r[1] + "\n" + r[2] + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseFileSkipsInvalidRecordButKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	corrupt := issL1Old[:20] + "9" + issL1Old[21:]
	path := writeTLEFile(t, dir, "mixed.tle", [][3]string{
		{issName, corrupt, issL2},
		{noaaName, noaaL1, noaaL2},
	})

	db, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("len(db.Entries) = %d, want 1 (corrupt record must decrement count by exactly 1)", len(db.Entries))
	}
	if db.Entries[0].SatelliteNumber != 33591 {
		t.Fatalf("unexpected surviving satellite: %+v", db.Entries[0])
	}
}

func TestMergeIdentity(t *testing.T) {
	a := &Database{Entries: []Entry{{SatelliteNumber: 1, Line1: issL1Old}}}
	empty := &Database{}
	Merge(empty, a, MergeNewest)
	if len(a.Entries) != 1 {
		t.Fatalf("merge(A, empty, NEWEST) changed A's length to %d", len(a.Entries))
	}
}

func TestMergeDisjointUnion(t *testing.T) {
	a := &Database{Entries: []Entry{{SatelliteNumber: 1, Line1: issL1Old}}}
	b := &Database{Entries: []Entry{{SatelliteNumber: 2, Line1: noaaL1}}}
	main := &Database{}
	Merge(b, main, MergeNewest)
	Merge(a, main, MergeNewest)
	if len(main.Entries) != 2 {
		t.Fatalf("len(merge(A, merge(B, empty))) = %d, want 2", len(main.Entries))
	}
}

func TestMergeNewnessMonotonicity(t *testing.T) {
	main := &Database{Entries: []Entry{{SatelliteNumber: 25544, Line1: issL1Old, Name: "old-name", SourceFilename: "a"}}}
	incoming := &Database{Entries: []Entry{{SatelliteNumber: 25544, Line1: issL1New, Name: "new-name", SourceFilename: "b"}}}

	Merge(incoming, main, MergeNewest)

	got, _ := Epoch(main.Entries[0].Line1)
	oldEpoch, _ := Epoch(issL1Old)
	newEpoch, _ := Epoch(issL1New)
	want := max(oldEpoch, newEpoch)
	if got != want {
		t.Fatalf("post-merge epoch = %v, want max(%v,%v)=%v", got, oldEpoch, newEpoch, want)
	}
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func TestMergeKeepNeverOverwrites(t *testing.T) {
	main := &Database{Entries: []Entry{{SatelliteNumber: 25544, Line1: issL1Old}}}
	incoming := &Database{Entries: []Entry{{SatelliteNumber: 25544, Line1: issL1New}}}
	Merge(incoming, main, MergeKeep)
	if main.Entries[0].Line1 != issL1Old {
		t.Fatalf("MergeKeep overwrote existing entry")
	}
}

func TestFromSearchPathsXDGPrecedence(t *testing.T) {
	home := t.TempDir()
	dataDir1 := t.TempDir()
	dataDir2 := t.TempDir()

	t.Setenv("XDG_DATA_HOME", home)
	t.Setenv("XDG_DATA_DIRS", dataDir1+":"+dataDir2)

	mustMkdirAll(t, filepath.Join(home, "flyby", "tles"))
	mustMkdirAll(t, filepath.Join(dataDir1, "flyby", "tles"))
	mustMkdirAll(t, filepath.Join(dataDir2, "flyby", "tles"))

	// Same satnum everywhere but with differing epochs; data_home must
	// win regardless of epoch, per spec XDG precedence property.
	writeTLEFile(t, filepath.Join(home, "flyby", "tles"), "home.tle", [][3]string{{issName, issL1Old, issL2}})
	writeTLEFile(t, filepath.Join(dataDir1, "flyby", "tles"), "d1.tle", [][3]string{{issName, issL1New, issL2}})
	writeTLEFile(t, filepath.Join(dataDir2, "flyby", "tles"), "d2.tle", [][3]string{{issName, issL1New, issL2}})

	db, err := FromSearchPaths()
	if err != nil {
		t.Fatalf("FromSearchPaths: %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("len(db.Entries) = %d, want 1", len(db.Entries))
	}
	if db.Entries[0].Line1 != issL1Old {
		t.Fatalf("data_home did not win precedence: got line1=%q", db.Entries[0].Line1)
	}
	if !db.ReadFromXDG {
		t.Fatal("ReadFromXDG should be true")
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%q): %v", path, err)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := writeTLEFile(t, dir, "mine.tle", [][3]string{{issName, issL1Old, issL2}})

	db := &Database{Entries: []Entry{{
		SatelliteNumber: 25544,
		Name:            "ISS (ZARYA)",
		Line1:           issL1Old,
		Line2:           issL2,
		SourceFilename:  srcPath,
	}}}

	updateFile := writeTLEFile(t, dir, "update.tle", [][3]string{{"ignored name", issL1New, issL2}})

	status, err := Update(updateFile, db)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !status[0].Updated || !status[0].FileUpdated {
		t.Fatalf("status = %+v, want Updated && FileUpdated", status[0])
	}
	if db.Entries[0].Line1 != issL1New {
		t.Fatalf("db.Entries[0].Line1 = %q, want updated line1", db.Entries[0].Line1)
	}
	if db.Entries[0].Name != "ISS (ZARYA)" {
		t.Fatalf("db.Entries[0].Name = %q, want original name preserved", db.Entries[0].Name)
	}
	if db.Entries[0].SourceFilename != srcPath {
		t.Fatalf("db.Entries[0].SourceFilename = %q, want original source preserved", db.Entries[0].SourceFilename)
	}
}
