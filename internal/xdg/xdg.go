// Package xdg resolves the XDG base directory paths Flyby stores its
// configuration and data under: config_home, config_dirs, data_home, and
// data_dirs, each independently overridable by environment variable.
package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

// RelativeRoot is the subdirectory every Flyby path lives under, relative
// to each XDG base directory.
const RelativeRoot = "flyby"

// TLERelativeDir is RelativeRoot's subdirectory for TLE files.
const TLERelativeDir = RelativeRoot + "/tles"

// QTHRelativeFile is RelativeRoot's QTH config filename.
const QTHRelativeFile = RelativeRoot + "/flyby.qth"

// DBRelativeFile is RelativeRoot's transponder database filename.
const DBRelativeFile = RelativeRoot + "/flyby.db"

// WhitelistRelativeFile is RelativeRoot's whitelist filename.
const WhitelistRelativeFile = RelativeRoot + "/flyby.whitelist"

const (
	envDataDirs   = "XDG_DATA_DIRS"
	envDataHome   = "XDG_DATA_HOME"
	envConfigDirs = "XDG_CONFIG_DIRS"
	envConfigHome = "XDG_CONFIG_HOME"

	defaultDataDirs   = "/usr/local/share/:/usr/share/"
	defaultDataHome   = ".local/share"
	defaultConfigDirs = "/etc/xdg"
	defaultConfigHome = ".config"
)

// dirs returns the colon-separated list in the named environment variable,
// or defaultVal if the variable is unset or empty.
func dirs(varname, defaultVal string) []string {
	v := os.Getenv(varname)
	if v == "" {
		v = defaultVal
	}
	var out []string
	for _, p := range strings.Split(v, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// home returns the single directory named by varname, or
// $HOME/defaultRelative if the variable is unset or empty.
func home(varname, defaultRelative string) string {
	v := os.Getenv(varname)
	if v != "" {
		return v
	}
	return filepath.Join(os.Getenv("HOME"), defaultRelative)
}

// DataDirs returns XDG_DATA_DIRS, or the specification default.
func DataDirs() []string {
	return dirs(envDataDirs, defaultDataDirs)
}

// DataHome returns XDG_DATA_HOME, or $HOME/.local/share.
func DataHome() string {
	return home(envDataHome, defaultDataHome)
}

// ConfigDirs returns XDG_CONFIG_DIRS, or the specification default.
func ConfigDirs() []string {
	return dirs(envConfigDirs, defaultConfigDirs)
}

// ConfigHome returns XDG_CONFIG_HOME, or $HOME/.config.
func ConfigHome() string {
	return home(envConfigHome, defaultConfigHome)
}

// EnsureDirs creates config_home/flyby and data_home/flyby/tles if they do
// not already exist.
func EnsureDirs() error {
	configPath := filepath.Join(ConfigHome(), RelativeRoot)
	if err := os.MkdirAll(configPath, 0o777); err != nil {
		return err
	}

	dataPath := filepath.Join(DataHome(), TLERelativeDir)
	return os.MkdirAll(dataPath, 0o777)
}

// SettingsFilepath returns config_home/<relativeFilename>, creating the
// enclosing XDG directories first.
func SettingsFilepath(relativeFilename string) (string, error) {
	if err := EnsureDirs(); err != nil {
		return "", err
	}
	return filepath.Join(ConfigHome(), relativeFilename), nil
}

// DataTLEDirs returns data_home/flyby/tles followed by each
// dir/flyby/tles in data_dirs, in declared order — the search path used
// by the TLE database (data_home first, highest precedence).
func DataTLEDirs() []string {
	out := []string{filepath.Join(DataHome(), TLERelativeDir)}
	for _, d := range DataDirs() {
		out = append(out, filepath.Join(d, TLERelativeDir))
	}
	return out
}

// DataDBPaths returns the flyby.db path under data_home followed by each
// data_dirs entry, in declared order.
func DataDBPaths() []string {
	out := []string{filepath.Join(DataHome(), DBRelativeFile)}
	for _, d := range DataDirs() {
		out = append(out, filepath.Join(d, DBRelativeFile))
	}
	return out
}

// ConfigQTHPaths returns the flyby.qth path under config_home followed by
// each config_dirs entry, in declared order — the search order used by
// QTH resolution (config_home first).
func ConfigQTHPaths() []string {
	out := []string{filepath.Join(ConfigHome(), QTHRelativeFile)}
	for _, d := range ConfigDirs() {
		out = append(out, filepath.Join(d, QTHRelativeFile))
	}
	return out
}
