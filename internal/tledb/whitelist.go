package tledb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/la1k/flyby/internal/xdg"
)

// SetEnabled sets db.Entries[index].Enabled, ignoring out-of-range indices
// (mirroring tle_db_entry_set_enabled's bounds check, since FindEntry
// returns -1 for unknown satellites).
func SetEnabled(db *Database, index int, enabled bool) {
	if index >= 0 && index < len(db.Entries) {
		db.Entries[index].Enabled = enabled
	}
}

// LoadWhitelistFromFile disables every entry, then enables those whose
// satellite number appears (one per line, base 10, blank lines ignored)
// in file. Re-running with the same file yields the same enabled set
// (whitelist idempotence, spec §8).
func LoadWhitelistFromFile(file string, db *Database) error {
	for i := range db.Entries {
		db.Entries[i].Enabled = false
	}

	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("tledb: %w: %v", flyerrPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		satnum, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		SetEnabled(db, FindEntry(db, satnum), true)
	}
	return nil
}

// LoadWhitelistFromSearchPaths reads config_home/flyby/flyby.whitelist.
func LoadWhitelistFromSearchPaths(db *Database) error {
	path := filepath.Join(xdg.ConfigHome(), xdg.WhitelistRelativeFile)
	return LoadWhitelistFromFile(path, db)
}

// WriteWhitelistToFile writes one satellite number per line for every
// enabled entry.
func WriteWhitelistToFile(filename string, db *Database) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("tledb: %w: %v", flyerrPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range db.Entries {
		if e.Enabled {
			fmt.Fprintf(w, "%d\n", e.SatelliteNumber)
		}
	}
	return w.Flush()
}

// WriteWhitelistToDefault writes to config_home/flyby/flyby.whitelist,
// creating the directory if absent.
func WriteWhitelistToDefault(db *Database) error {
	if err := xdg.EnsureDirs(); err != nil {
		return err
	}
	path := filepath.Join(xdg.ConfigHome(), xdg.WhitelistRelativeFile)
	return WriteWhitelistToFile(path, db)
}

// Filenames returns the distinct source filenames contributing to db, in
// first-seen order.
func Filenames(db *Database) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range db.Entries {
		if !seen[e.SourceFilename] {
			seen[e.SourceFilename] = true
			out = append(out, e.SourceFilename)
		}
	}
	return out
}
