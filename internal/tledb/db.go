package tledb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/la1k/flyby/internal/xdg"
)

// ParseFile reads successive 3-line groups from path. Groups whose
// (line1, line2) fail ValidateLines are skipped. The name line's trailing
// whitespace/CR is trimmed and truncated to 24 characters; lines are
// truncated to 69 characters, matching tle_db_from_file.
func ParseFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tledb: %w: %v", flyerrPath, err)
	}
	defer f.Close()

	db := &Database{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024), 64*1024)

	for {
		name, ok1 := readLine(sc)
		line1, ok2 := readLine(sc)
		line2, ok3 := readLine(sc)
		if !ok1 || !ok2 || !ok3 {
			break
		}

		l1 := truncate(line1, 69)
		l2 := truncate(line2, 69)
		if err := ValidateLines(l1, l2); err != nil {
			continue
		}

		satnum, err := SatelliteNumber(l1)
		if err != nil {
			continue
		}

		entry := Entry{
			SatelliteNumber: satnum,
			Name:            truncate(trimTrailing(name), 24),
			Line1:           l1,
			Line2:           l2,
			SourceFilename:  path,
		}
		addEntry(db, entry)
	}
	return db, nil
}

func readLine(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// trimTrailing strips trailing spaces, NUL, LF and CR, mirroring the
// backward scan in tle_db_from_file.
func trimTrailing(s string) string {
	return strings.TrimRight(s, " \x00\n\r")
}

// ParseDirectory reads TLEs from every regular file directly within dirpath
// (non-recursive). Multiply-defined satellites within the directory resolve
// to the newest by epoch (MergeNewest).
func ParseDirectory(dirpath string) (*Database, error) {
	ret := &Database{}

	entries, err := os.ReadDir(dirpath)
	if err != nil {
		if os.IsNotExist(err) {
			return ret, nil
		}
		return ret, fmt.Errorf("tledb: %w: %v", flyerrPath, err)
	}

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		full := filepath.Join(dirpath, de.Name())
		tmp, err := ParseFile(full)
		if err != nil {
			continue
		}
		Merge(tmp, ret, MergeNewest)
	}
	return ret, nil
}

// FindEntry returns the index of the entry with the given satellite
// number, or -1 if not present.
func FindEntry(db *Database, satelliteNumber int64) int {
	for i, e := range db.Entries {
		if e.SatelliteNumber == satelliteNumber {
			return i
		}
	}
	return -1
}

func addEntry(db *Database, entry Entry) {
	if len(db.Entries) < MaxSats {
		db.Entries = append(db.Entries, entry)
	}
}

// Merge folds new into main according to policy. Satellite identity is the
// catalog number. New satellites not already present in main are always
// appended (bounded by MaxSats).
func Merge(newDB, mainDB *Database, policy MergeBehavior) {
	for _, incoming := range newDB.Entries {
		idx := FindEntry(mainDB, incoming.SatelliteNumber)
		if idx != -1 {
			if policy == MergeNewest && IsNewer(incoming, mainDB.Entries[idx]) {
				mainDB.Entries[idx] = incoming
			}
			continue
		}
		addEntry(mainDB, incoming)
	}
}

// FromSearchPaths loads data_home/flyby/tles first, then each
// dir/flyby/tles in data_dirs in declared order, merging with
// MergeNewest within data_home, then MergeKeep (first-directory-wins, data
// home already unconditionally present) for data_dirs entries — so
// data_home always wins regardless of epoch, and data_dirs entries
// encountered earlier win over later ones. Sets ReadFromXDG=true.
func FromSearchPaths() (*Database, error) {
	dirs := xdg.DataTLEDirs()
	ret := &Database{}

	if len(dirs) > 0 {
		home, err := ParseDirectory(dirs[0])
		if err != nil {
			return nil, err
		}
		*ret = *home
	}

	for _, dir := range dirs[1:] {
		tmp, err := ParseDirectory(dir)
		if err != nil {
			continue
		}
		Merge(tmp, ret, MergeKeep)
	}

	ret.ReadFromXDG = true
	return ret, nil
}

// ToFile writes every entry in db to filename as repeating
// name/line1/line2 triples.
func ToFile(filename string, db *Database) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("tledb: %w: %v", flyerrPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range db.Entries {
		fmt.Fprintf(w, "%s\n%s\n%s\n", e.Name, e.Line1, e.Line2)
	}
	return w.Flush()
}

// UpdateStatus records, per entry index in the database being updated,
// which persistence actions Update took (spec §4.1).
type UpdateStatus struct {
	Updated     bool // TLE_DB_UPDATED: in-memory entry replaced
	FileUpdated bool // TLE_FILE_UPDATED: source file rewritten in place
	InNewFile   bool // TLE_IN_NEW_FILE: appended to a new updatefile
}

// Update reads filename as a TLE source and, for every satellite present
// in both it and db with a newer epoch, overwrites db's entry (keeping the
// existing entry's Name and SourceFilename) and persists the change: if
// the original source file is writable, that file is rewritten with all
// entries sharing its filename; otherwise, if db.ReadFromXDG, all
// unwritable updates are appended to one newly-created file under
// data_home/flyby/tles/.
func Update(filename string, db *Database) ([]UpdateStatus, error) {
	newDB, err := ParseFile(filename)
	if err != nil {
		return nil, err
	}

	status := make([]UpdateStatus, len(db.Entries))

	type pending struct {
		dbIndex  int
		newEntry Entry
	}
	var toUpdate []pending
	for _, incoming := range newDB.Entries {
		idx := FindEntry(db, incoming.SatelliteNumber)
		if idx == -1 {
			continue
		}
		if IsNewer(incoming, db.Entries[idx]) {
			toUpdate = append(toUpdate, pending{dbIndex: idx, newEntry: incoming})
		}
	}
	if len(toUpdate) == 0 {
		return status, nil
	}

	var unwritable []int
	handled := make([]bool, len(toUpdate))

	for i, p := range toUpdate {
		if handled[i] {
			continue
		}
		sourceFilename := db.Entries[p.dbIndex].SourceFilename
		writable := isWritable(sourceFilename)

		for j := i; j < len(toUpdate); j++ {
			if handled[j] {
				continue
			}
			q := toUpdate[j]
			if db.Entries[q.dbIndex].SourceFilename != sourceFilename {
				continue
			}
			keepName := db.Entries[q.dbIndex].Name
			keepFilename := db.Entries[q.dbIndex].SourceFilename

			newEntry := q.newEntry
			newEntry.Name = keepName
			newEntry.SourceFilename = keepFilename
			db.Entries[q.dbIndex] = newEntry

			status[q.dbIndex].Updated = true
			if writable {
				status[q.dbIndex].FileUpdated = true
			} else {
				unwritable = append(unwritable, q.dbIndex)
			}
			handled[j] = true
		}

		if writable {
			if err := rewriteSourceFile(sourceFilename, db); err != nil {
				return status, err
			}
		}
	}

	if len(unwritable) > 0 && db.ReadFromXDG {
		newFilename, err := updatefileWritepath(time.Now())
		if err != nil {
			return status, err
		}
		var unwritableDB Database
		for _, idx := range unwritable {
			addEntry(&unwritableDB, db.Entries[idx])
			db.Entries[idx].SourceFilename = newFilename
		}
		if err := ToFile(newFilename, &unwritableDB); err == nil {
			for _, idx := range unwritable {
				status[idx].InNewFile = true
			}
		}
	}

	return status, nil
}

func isWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// rewriteSourceFile rewrites filename with exactly the db entries whose
// SourceFilename matches it, mirroring tle_db_update_file.
func rewriteSourceFile(filename string, db *Database) error {
	var subset Database
	for _, e := range db.Entries {
		if e.SourceFilename == filename {
			addEntry(&subset, e)
		}
	}
	return ToFile(filename, &subset)
}

// updatefileWritepath returns data_home/flyby/tles/tle-updatefile-<YYYY-MM-DD>-<HHMMSS>-<N>.tle (UTC)
// for the least non-negative N yielding a non-existing path.
func updatefileWritepath(now time.Time) (string, error) {
	if err := xdg.EnsureDirs(); err != nil {
		return "", err
	}
	base := now.UTC().Format("tle-updatefile-2006-01-02-150405-")
	dir := filepath.Join(xdg.DataHome(), xdg.TLERelativeDir)

	for n := 0; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s%d.tle", base, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}
