// Package tledb implements Flyby's TLE database: parsing and validating
// NORAD two-line element records, merging and updating multiple sources,
// and persisting the enabled/disabled whitelist. Grounded on
// original_source/src/tle_db.c.
package tledb

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSats bounds database capacity (spec §3 MAX_SATS).
const MaxSats = 250

// Entry is one NORAD TLE plus provenance (spec §3 TleEntry).
type Entry struct {
	SatelliteNumber int64
	Name            string
	Line1           string
	Line2           string
	SourceFilename  string
	Enabled         bool
}

// MergeBehavior selects how Merge resolves satellites present in both
// databases (spec §4.1).
type MergeBehavior int

const (
	// MergeNewest overwrites an existing entry only if the incoming one
	// has a newer epoch.
	MergeNewest MergeBehavior = iota
	// MergeKeep never overwrites an existing entry.
	MergeKeep
)

// Database is an ordered collection of Entry, bounded by MaxSats.
type Database struct {
	Entries []Entry
	// ReadFromXDG is true iff the database was loaded via the XDG
	// search-path walk rather than from explicit files.
	ReadFromXDG bool
}

// checksumVal maps a TLE character to its checksum contribution: digits
// contribute their value, '-' contributes 1, everything else 0.
func checksumVal(c byte) int {
	if c >= '0' && c <= '9' {
		return int(c - '0')
	}
	if c == '-' {
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ValidateLines performs the structural and checksum "torture test" on a
// NORAD TLE's two data lines (spec §6, grounded on KepCheck in
// original_source/src/tle_db.c). Both lines must be at least 69 characters.
func ValidateLines(line1, line2 string) error {
	if len(line1) < 69 || len(line2) < 69 {
		return fmt.Errorf("tledb: %w: line too short", errParse)
	}

	var sum1, sum2 int
	for i := 0; i < 68; i++ {
		sum1 += checksumVal(line1[i])
		sum2 += checksumVal(line2[i])
	}

	ok := checksumVal(line1[68]) == sum1%10 &&
		checksumVal(line2[68]) == sum2%10 &&
		line1[0] == '1' && line1[1] == ' ' && line1[7] == 'U' &&
		line1[8] == ' ' && line1[17] == ' ' && line1[23] == '.' &&
		line1[32] == ' ' && line1[34] == '.' && line1[43] == ' ' &&
		line1[52] == ' ' && line1[61] == ' ' && line1[62] == '0' &&
		line1[63] == ' ' &&
		line2[0] == '2' && line2[1] == ' ' && line2[7] == ' ' &&
		line2[11] == '.' && line2[16] == ' ' && line2[20] == '.' &&
		line2[25] == ' ' && line2[33] == ' ' && line2[37] == '.' &&
		line2[42] == ' ' && line2[46] == '.' && line2[51] == ' ' &&
		line2[54] == '.' &&
		line1[2] == line2[2] && line1[3] == line2[3] && line1[4] == line2[4] &&
		line1[5] == line2[5] && line1[6] == line2[6] &&
		isDigit(line1[68]) && isDigit(line2[68]) &&
		isDigit(line1[18]) && isDigit(line1[19]) &&
		isDigit(line2[31]) && isDigit(line2[32])

	if !ok {
		return fmt.Errorf("tledb: %w: structural/checksum validation failed", errParse)
	}
	return nil
}

// SatelliteNumber parses the catalog number from TLE line 1, columns 3-7
// (1-indexed), i.e. line1[2:7].
func SatelliteNumber(line1 string) (int64, error) {
	if len(line1) < 7 {
		return 0, fmt.Errorf("tledb: %w: line1 too short", errParse)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line1[2:7]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tledb: %w: satellite number: %v", errParse, err)
	}
	return n, nil
}

// Epoch returns epoch_year*1000+epoch_day, applying the 1957-pivot
// two-digit-year rule (years <57 => 20xx, else 19xx) so comparisons are
// monotone in calendar time.
func Epoch(line1 string) (float64, error) {
	if len(line1) < 32 {
		return 0, fmt.Errorf("tledb: %w: line1 too short", errParse)
	}
	yy, err := strconv.Atoi(strings.TrimSpace(line1[18:20]))
	if err != nil {
		return 0, fmt.Errorf("tledb: %w: epoch year: %v", errParse, err)
	}
	day, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return 0, fmt.Errorf("tledb: %w: epoch day: %v", errParse, err)
	}
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	return float64(year)*1000 + day, nil
}

// IsNewer reports whether a's epoch is strictly later than b's.
func IsNewer(a, b Entry) bool {
	ea, err := Epoch(a.Line1)
	if err != nil {
		return false
	}
	eb, err := Epoch(b.Line1)
	if err != nil {
		return true
	}
	return ea > eb
}
