// Flybyd is the daemon half of Flyby: it loads configuration, the TLE and
// transponder databases, and the ground station location, then serves the
// HTTP/WebSocket API and runs the multi-track scheduler until asked to
// shut down. A handful of its flags (--add-tle-file, --update-tle-db) are
// one-shot TLE database maintenance commands that run and exit without
// starting the daemon at all (spec.md §6).
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/la1k/flyby/internal/app"
	"github.com/la1k/flyby/internal/config"
	"github.com/la1k/flyby/internal/tledb"
	"github.com/la1k/flyby/internal/xdg"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to config TOML (auto-discovers if omitted)")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides config)")

		tleFiles    = pflag.StringArray("tle-file", nil, "Extra TLE source file to load at startup (repeatable)")
		addTLEFile  = pflag.String("add-tle-file", "", "Copy a TLE file into the user data directory and exit")
		updateTLEDB = pflag.StringArray("update-tle-db", nil, "Merge a TLE file into the tracked database and exit (repeatable)")

		qthFile = pflag.String("qth-file", "", "Path to a QTH file, overriding the search path")

		rotctldTracking = pflag.String("rotctld-tracking", "", "rotctld host[:port] to drive for antenna tracking")
		trackingHorizon = pflag.Float64("tracking-horizon", math.NaN(), "Elevation in degrees below which rotator/rig updates are suppressed")

		rigctldUplink   = pflag.String("rigctld-uplink", "", "rigctld host[:port] for uplink Doppler correction")
		uplinkVFO       = pflag.String("uplink-vfo", "", "VFO name to select on the uplink rig")
		rigctldDownlink = pflag.String("rigctld-downlink", "", "rigctld host[:port] for downlink Doppler correction")
		downlinkVFO     = pflag.String("downlink-vfo", "", "VFO name to select on the downlink rig")
	)
	pflag.CommandLine.Init(os.Args[0], pflag.ContinueOnError)
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// --add-tle-file and --update-tle-db are one-shot commands: they touch
	// the on-disk TLE database and exit without starting the daemon.
	if *addTLEFile != "" {
		if err := addTLEFileToDataDir(*addTLEFile); err != nil {
			fmt.Fprintln(os.Stderr, "add-tle-file:", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if len(*updateTLEDB) > 0 {
		if err := runUpdateTLEDB(*updateTLEDB); err != nil {
			fmt.Fprintln(os.Stderr, "update-tle-db:", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = config.FindConfigFile()
	}

	logger := log.New(os.Stdout, "flybyd ", log.LstdFlags|log.Lmicroseconds)

	var cfg config.Config
	if cfgFile == "" {
		cfg = config.Default()
		logger.Printf("no config file found, using defaults")
		logger.Printf("create %s/flyby/config.toml to customize", xdg.ConfigHome())
	} else {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		logger.Printf("loaded config from %s", cfgFile)
	}

	applyCLIOverrides(&cfg, cliOverrides{
		tleFiles:        *tleFiles,
		qthFile:         *qthFile,
		rotctldTracking: *rotctldTracking,
		trackingHorizon: *trackingHorizon,
		rigctldUplink:   *rigctldUplink,
		uplinkVFO:       *uplinkVFO,
		rigctldDownlink: *rigctldDownlink,
		downlinkVFO:     *downlinkVFO,
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "argument error:", err)
		os.Exit(1)
	}

	if err := config.EnsureDirectories(cfg); err != nil {
		log.Fatalf("directory setup: %v", err)
	}

	a, err := app.New(app.Options{
		Logger:     logger,
		Cfg:        cfg,
		Bind:       *bind,
		ConfigPath: cfgFile,
	})
	if err != nil {
		log.Fatalf("flybyd init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("flybyd failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}

// cliOverrides holds the flag-driven config overrides layered onto the
// loaded (or default) Config before the daemon starts (spec.md §6).
type cliOverrides struct {
	tleFiles        []string
	qthFile         string
	rotctldTracking string
	trackingHorizon float64
	rigctldUplink   string
	uplinkVFO       string
	rigctldDownlink string
	downlinkVFO     string
}

func applyCLIOverrides(cfg *config.Config, o cliOverrides) {
	if len(o.tleFiles) > 0 {
		cfg.TLE.ExtraPaths = append(cfg.TLE.ExtraPaths, o.tleFiles...)
	}
	if o.qthFile != "" {
		cfg.Station.QTHFile = o.qthFile
	}
	if o.rotctldTracking != "" {
		host, port := splitHostPort(o.rotctldTracking, "4533")
		cfg.Rotator.Enabled = true
		cfg.Rotator.Host = host
		cfg.Rotator.Port = port
	}
	if !math.IsNaN(o.trackingHorizon) {
		cfg.Predict.TrackingHorizonDeg = o.trackingHorizon
	}
	if o.rigctldUplink != "" {
		host, port := splitHostPort(o.rigctldUplink, "4532")
		cfg.Uplink.Enabled = true
		cfg.Uplink.Host = host
		cfg.Uplink.Port = port
	}
	if o.uplinkVFO != "" {
		cfg.Uplink.VFO = o.uplinkVFO
	}
	if o.rigctldDownlink != "" {
		host, port := splitHostPort(o.rigctldDownlink, "4532")
		cfg.Downlink.Enabled = true
		cfg.Downlink.Host = host
		cfg.Downlink.Port = port
	}
	if o.downlinkVFO != "" {
		cfg.Downlink.VFO = o.downlinkVFO
	}
}

// splitHostPort splits "host[:port]" into host and port, falling back to
// defaultPort when no port is present.
func splitHostPort(hostport, defaultPort string) (host, port string) {
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		return h, p
	}
	return hostport, defaultPort
}

// addTLEFileToDataDir validates path as a TLE source and copies it
// verbatim into data_home/flyby/tles, where it joins the normal TLE
// search path (spec.md §6 --add-tle-file).
func addTLEFileToDataDir(path string) error {
	if _, err := tledb.ParseFile(path); err != nil {
		return fmt.Errorf("not a valid TLE file: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := xdg.EnsureDirs(); err != nil {
		return err
	}
	dest := filepath.Join(xdg.DataTLEDirs()[0], filepath.Base(path))
	return os.WriteFile(dest, b, 0o644)
}

// runUpdateTLEDB loads the tracked TLE database from the search path,
// merges each named file's newer entries into it, and prints a summary
// per file (spec.md §6 --update-tle-db, spec.md §4.1 tle_db_update).
func runUpdateTLEDB(filenames []string) error {
	db, err := tledb.FromSearchPaths()
	if err != nil {
		return err
	}

	for _, filename := range filenames {
		statuses, err := tledb.Update(filename, db)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		var updated, filesRewritten, newFile int
		for _, s := range statuses {
			if s.Updated {
				updated++
			}
			if s.FileUpdated {
				filesRewritten++
			}
			if s.InNewFile {
				newFile++
			}
		}
		fmt.Printf("%s: %d entries updated, %d source files rewritten, %d appended to a new file\n",
			filename, updated, filesRewritten, newFile)
	}
	return nil
}
