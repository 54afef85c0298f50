// Package qth persists a ground station's location: name (callsign),
// latitude, longitude, and altitude. Grounded on
// original_source/src/qth_config.c.
package qth

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/la1k/flyby/internal/flyerr"
	"github.com/la1k/flyby/internal/xdg"
)

// QTH is a ground station location (spec §4.9).
type QTH struct {
	Name string

	// LatitudeDeg is north-positive, in degrees.
	LatitudeDeg float64

	// LongitudeDeg is east-positive, in degrees. On disk the file stores
	// west-positive, matching the Predict-legacy .qth format; this field
	// is always east-positive regardless of file representation.
	LongitudeDeg float64

	// AltitudeM is the station altitude in metres.
	//
	// The original C reader applies a degrees-to-radians scale factor to
	// this field (`altitude*M_PI/180.0`) inherited by copy-paste from the
	// lines above it, which turns an integer metre count into a
	// dimensionless fraction. That is almost certainly a bug, not an
	// intentional unit: nothing downstream of it expects altitude in
	// radians, and the file format documents the value as integer metres.
	// This package stores and round-trips AltitudeM in metres, unconverted.
	AltitudeM int
}

// FileState records where a QTH file was found by FromSearchPaths.
type FileState int

const (
	FileHome FileState = iota
	FileSystemwide
	FileNotFound
)

// FromFile reads a four-line QTH file: name, latitude (degrees north),
// longitude (degrees west), altitude (integer metres).
func FromFile(path string) (QTH, error) {
	f, err := os.Open(path)
	if err != nil {
		return QTH{}, fmt.Errorf("qth: %w: %v", flyerr.ErrPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) == 4 {
			break
		}
	}
	if len(lines) != 4 {
		return QTH{}, fmt.Errorf("qth: %w: %s: expected 4 lines, got %d", flyerr.ErrParse, path, len(lines))
	}

	name := strings.TrimRight(lines[0], "\r\n")
	if len(name) > 16 {
		name = name[:16]
	}

	latDeg, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return QTH{}, fmt.Errorf("qth: %w: %s: latitude: %v", flyerr.ErrParse, path, err)
	}
	lonWestDeg, err := strconv.ParseFloat(strings.TrimSpace(lines[2]), 64)
	if err != nil {
		return QTH{}, fmt.Errorf("qth: %w: %s: longitude: %v", flyerr.ErrParse, path, err)
	}
	altM, err := strconv.Atoi(strings.TrimSpace(lines[3]))
	if err != nil {
		return QTH{}, fmt.Errorf("qth: %w: %s: altitude: %v", flyerr.ErrParse, path, err)
	}

	return QTH{
		Name:         name,
		LatitudeDeg:  latDeg,
		LongitudeDeg: -lonWestDeg, // file is west-positive; QTH is east-positive
		AltitudeM:    altM,
	}, nil
}

// ToFile writes qth to path in the four-line format FromFile reads.
func ToFile(path string, qth QTH) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("qth: %w: %v", flyerr.ErrPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s\n", qth.Name)
	fmt.Fprintf(w, " %g\n", qth.LatitudeDeg)
	fmt.Fprintf(w, " %g\n", -qth.LongitudeDeg) // east-positive -> west-positive on disk
	fmt.Fprintf(w, " %d\n", qth.AltitudeM)
	return w.Flush()
}

// FromSearchPaths tries config_home/flyby/flyby.qth, then each
// config_dirs/flyby/flyby.qth entry in declared order.
func FromSearchPaths() (QTH, FileState, error) {
	paths := xdg.ConfigQTHPaths()
	q, err := FromFile(paths[0])
	if err == nil {
		return q, FileHome, nil
	}

	for _, p := range paths[1:] {
		q, err := FromFile(p)
		if err == nil {
			return q, FileSystemwide, nil
		}
	}
	return QTH{}, FileNotFound, fmt.Errorf("qth: %w: no QTH file found in search paths", flyerr.ErrPath)
}

// DefaultWritepath returns config_home/flyby/flyby.qth, creating the
// enclosing XDG directories first.
func DefaultWritepath() (string, error) {
	if err := xdg.EnsureDirs(); err != nil {
		return "", err
	}
	return filepath.Join(xdg.ConfigHome(), xdg.QTHRelativeFile), nil
}
