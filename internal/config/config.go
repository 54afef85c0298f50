// Package config handles loading, defaulting, and validation of flybyd's
// TOML configuration file. Every section maps to a typed struct so the
// rest of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/la1k/flyby/internal/xdg"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"  json:"logging"`
	Server   ServerConfig   `toml:"server"   json:"server"`
	Station  StationConfig  `toml:"station"  json:"station"`
	Predict  PredictConfig  `toml:"predict"  json:"predict"`
	Rotator  RotatorConfig  `toml:"rotator"  json:"rotator"`
	Uplink   RigConfig      `toml:"uplink"   json:"uplink"`
	Downlink RigConfig      `toml:"downlink" json:"downlink"`
	TLE      TLEConfig      `toml:"tle"      json:"tle"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// StationConfig overrides the QTH file when any field is non-zero; a
// station with all-zero fields falls back to qth.FromSearchPaths (spec.md
// §4.9).
type StationConfig struct {
	Name      string  `toml:"name"      json:"name"`
	Latitude  float64 `toml:"latitude"  json:"latitude"`
	Longitude float64 `toml:"longitude" json:"longitude"`
	Altitude  float64 `toml:"altitude"  json:"altitude"`

	// QTHFile overrides qth.FromSearchPaths with an explicit path
	// (flybyd's --qth-file flag). Left empty, resolution falls back to
	// Latitude/Longitude/Altitude above, then the QTH search path.
	QTHFile string `toml:"qth_file" json:"qth_file"`
}

type PredictConfig struct {
	LookaheadHours     int     `toml:"lookahead_hours"      json:"lookahead_hours"`
	TrackingHorizonDeg float64 `toml:"tracking_horizon_deg" json:"tracking_horizon_deg"`
}

// RotatorConfig addresses the rotctld instance to drive (spec.md §4.6).
// Enabled false means single-track sessions run without rotator control.
type RotatorConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Host    string `toml:"host"    json:"host"`
	Port    string `toml:"port"    json:"port"`
}

// RigConfig addresses one rigctld instance (spec.md §4.7). Flyby drives
// two independently — Config.Uplink and Config.Downlink — since full
// duplex operation (e.g. satellite voice repeaters) needs separate radios
// for each direction.
type RigConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Host    string `toml:"host"    json:"host"`
	Port    string `toml:"port"    json:"port"`
	VFO     string `toml:"vfo"     json:"vfo"`
}

// TLEConfig names additional TLE search locations layered on top of
// internal/xdg's standard search path (spec.md §4.1).
type TLEConfig struct {
	ExtraPaths []string `toml:"extra_paths" json:"extra_paths"`
}

// FindConfigFile searches for a config file in standard locations:
//  1. $FLYBY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/flyby/config.toml (and each $XDG_CONFIG_DIRS entry)
//  3. configs/example.toml (bundled fallback)
//
// Returns the path to the first file found, or empty string if none
// exist, in which case the caller should use Default() directly.
func FindConfigFile() string {
	if env := os.Getenv("FLYBY_CONFIG"); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env
		}
	}

	candidate := filepath.Join(xdg.ConfigHome(), "flyby", "config.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	for _, d := range xdg.ConfigDirs() {
		candidate = filepath.Join(d, "flyby", "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if _, err := os.Stat("configs/example.toml"); err == nil {
		return "configs/example.toml"
	}
	return ""
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Bind: "0.0.0.0:8080"},
		Predict: PredictConfig{
			LookaheadHours:     24,
			TrackingHorizonDeg: 0,
		},
		Rotator: RotatorConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    "4533",
		},
		Uplink: RigConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    "4532",
		},
		Downlink: RigConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    "4532",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. XDG data/config directories are created
// automatically if they don't exist.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	for i, p := range cfg.TLE.ExtraPaths {
		cfg.TLE.ExtraPaths[i] = expandHome(p)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, xdg.EnsureDirs()
}

// EnsureDirectories creates the XDG config/data directories flybyd needs
// regardless of whether a config file was found.
func EnsureDirectories(_ Config) error {
	return xdg.EnsureDirs()
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Validate re-checks a Config after in-process mutation (e.g. flybyd
// layering CLI flag overrides on top of a loaded file), using the same
// rules Load applies to the file itself.
func Validate(cfg Config) error {
	return validate(cfg)
}

func validate(cfg Config) error {
	if cfg.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	if cfg.Predict.LookaheadHours < 1 {
		return errors.New("predict.lookahead_hours must be >= 1")
	}
	if cfg.Predict.TrackingHorizonDeg < -90 || cfg.Predict.TrackingHorizonDeg > 90 {
		return errors.New("predict.tracking_horizon_deg must be between -90 and 90")
	}
	return nil
}

// ProfileInfo describes a config profile discovered in the config
// directory, for the daemon's config-profile listing endpoint.
type ProfileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// ListProfiles scans a directory for .toml files and returns them as
// profiles.
func ListProfiles(configDir string) ([]ProfileInfo, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles []ProfileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		profiles = append(profiles, ProfileInfo{
			Name:    strings.TrimSuffix(e.Name(), ".toml"),
			Path:    filepath.Join(configDir, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	return profiles, nil
}
