package transponderdb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/la1k/flyby/internal/flyerr"
	"github.com/la1k/flyby/internal/tledb"
	"github.com/la1k/flyby/internal/xdg"
)

// FromFile reads dbfile (the Predict-legacy flyby.db format, spec §6) and
// merges its records into ret, matching each record to ret's slot by
// satellite number via tles. Records for satellites absent from tles are
// ignored. The location bit is ORed into any existing location for the
// matched entry. ret must already have one slot per entry in tles.
func FromFile(dbfile string, tles *tledb.Database, ret *Database, locationInfo Location) error {
	if len(ret.Entries) != len(tles.Entries) {
		return fmt.Errorf("transponderdb: entry count %d does not match TLE database size %d", len(ret.Entries), len(tles.Entries))
	}

	f, err := os.Open(dbfile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("transponderdb: %w: %v", flyerr.ErrPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024), 64*1024)

	for {
		nameLine, ok := readLine(sc)
		if !ok || strings.HasPrefix(nameLine, "end") {
			break
		}

		satnumLine, ok := readLine(sc)
		if !ok {
			break
		}
		satnum, err := strconv.ParseInt(strings.TrimSpace(satnumLine), 10, 64)
		if err != nil {
			break
		}

		attLine, ok := readLine(sc)
		if !ok {
			break
		}
		var entry Entry
		if !strings.HasPrefix(attLine, "No") {
			lat, lon, ok := parseTwoFloats(attLine)
			if ok {
				entry.AttitudeLatitude = lat
				entry.AttitudeLongitude = lon
				entry.SquintEnabled = true
			}
		}

		for {
			tLine, ok := readLine(sc)
			if !ok || strings.HasPrefix(tLine, "end") {
				break
			}
			name := strings.TrimRight(tLine, "\r\n")

			upLine, ok1 := readLine(sc)
			downLine, ok2 := readLine(sc)
			_, ok3 := readLine(sc) // weekly schedule, unused
			_, ok4 := readLine(sc) // orbital schedule, unused
			if !ok1 || !ok2 || !ok3 || !ok4 {
				break
			}

			upStart, upEnd, _ := parseTwoFloats(upLine)
			downStart, downEnd, _ := parseTwoFloats(downLine)

			if (upStart != 0 || downStart != 0) && len(entry.Transponders) < MaxTransponders {
				entry.Transponders = append(entry.Transponders, Transponder{
					Name:          name,
					UplinkStart:   upStart,
					UplinkEnd:     upEnd,
					DownlinkStart: downStart,
					DownlinkEnd:   downEnd,
				})
			}
		}

		idx := tledb.FindEntry(tles, satnum)
		if idx != -1 {
			newLocation := ret.Entries[idx].Location | locationInfo
			entry.Location = newLocation
			ret.Entries[idx] = entry
			ret.Loaded = true
		}
	}

	return nil
}

func readLine(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

func parseTwoFloats(line string) (a, b float64, ok bool) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return a, b, err1 == nil && err2 == nil
}

// FromSearchPaths builds a Database sized to tles and loads
// dir/flyby/flyby.db for each data_dirs entry in reverse declared order
// (so earlier-declared directories are applied last and hence win within
// data_dirs), then loads data_home/flyby/flyby.db last so it always takes
// final precedence. Mirrors transponder_db_from_search_paths.
func FromSearchPaths(tles *tledb.Database) (*Database, error) {
	ret := NewDatabase(len(tles.Entries))

	dataDirs := xdg.DataDirs()
	for i := len(dataDirs) - 1; i >= 0; i-- {
		path := filepath.Join(dataDirs[i], xdg.DBRelativeFile)
		if err := FromFile(path, tles, ret, LocationDataDirs); err != nil {
			return nil, err
		}
	}

	homePath := filepath.Join(xdg.DataHome(), xdg.DBRelativeFile)
	if err := FromFile(homePath, tles, ret, LocationDataHome); err != nil {
		return nil, err
	}
	return ret, nil
}

// ToFile writes db to filename in the flyby.db format, including only the
// entries for which shouldWrite[i] is true, paired with the satellite
// name/number from tles by index.
func ToFile(filename string, tles *tledb.Database, db *Database, shouldWrite []bool) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("transponderdb: %w: %v", flyerr.ErrPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, entry := range db.Entries {
		if i >= len(shouldWrite) || !shouldWrite[i] {
			continue
		}
		fmt.Fprintf(w, "%s\n", tles.Entries[i].Name)
		fmt.Fprintf(w, "%d\n", tles.Entries[i].SatelliteNumber)

		if entry.SquintEnabled {
			fmt.Fprintf(w, "%g, %g\n", entry.AttitudeLatitude, entry.AttitudeLongitude)
		} else {
			fmt.Fprintf(w, "No alat, alon\n")
		}

		for _, t := range entry.Transponders {
			if t.UplinkStart != 0 || t.DownlinkStart != 0 {
				fmt.Fprintf(w, "%s\n", t.Name)
				fmt.Fprintf(w, "%g, %g\n", t.UplinkStart, t.UplinkEnd)
				fmt.Fprintf(w, "%g, %g\n", t.DownlinkStart, t.DownlinkEnd)
				fmt.Fprintf(w, "No weekly schedule\n")
				fmt.Fprintf(w, "No orbital schedule\n")
			}
		}
		fmt.Fprintf(w, "end\n")
	}
	return w.Flush()
}

// WriteToDefault writes db to data_home/flyby/flyby.db. An entry is
// included iff its location bit DATA_HOME or TRANSIENT is set, unless it
// is empty with no DATA_DIRS counterpart (spec §4.2), in which case it
// would only pollute the user file and is elided.
func WriteToDefault(tles *tledb.Database, db *Database) error {
	if err := xdg.EnsureDirs(); err != nil {
		return err
	}
	path := filepath.Join(xdg.DataHome(), xdg.DBRelativeFile)

	shouldWrite := make([]bool, len(db.Entries))
	for i, entry := range db.Entries {
		if entry.Location&LocationDataHome != 0 || entry.Location&LocationTransient != 0 {
			shouldWrite[i] = true
		}
		noDataDirs := entry.Location&LocationDataDirs == 0
		homeOrNone := entry.Location&LocationDataHome != 0 || entry.Location&LocationNone != 0
		if homeOrNone && noDataDirs && entry.Empty() {
			shouldWrite[i] = false
		}
	}
	return ToFile(path, tles, db, shouldWrite)
}

// Equal reports whether two entries have identical content (ignoring
// Location).
func Equal(a, b Entry) bool {
	if a.SquintEnabled != b.SquintEnabled || a.AttitudeLatitude != b.AttitudeLatitude ||
		a.AttitudeLongitude != b.AttitudeLongitude || len(a.Transponders) != len(b.Transponders) {
		return false
	}
	for i := range a.Transponders {
		if a.Transponders[i] != b.Transponders[i] {
			return false
		}
	}
	return true
}
