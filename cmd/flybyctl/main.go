// Flybyctl is the command-line client for monitoring and controlling a
// running flybyd instance: satellite catalog queries, pass predictions,
// single-track session control, and a live event stream.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/la1k/flyby/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Flyby daemon URL (e.g. http://192.168.8.1:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,log)")
	)

	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "satellites":
		err = ctl.Satellites(*host, *jsonOut)

	case "profiles":
		err = ctl.Profiles(*host, *jsonOut)

	case "passes":
		passFlags := pflag.NewFlagSet("passes", pflag.ContinueOnError)
		count := passFlags.Int("count", 0, "Limit number of passes shown")
		satellite := passFlags.String("satellite", "", "Filter by satellite name")
		_ = passFlags.Parse(subArgs)
		err = ctl.Passes(*host, *satellite, *count, *jsonOut)

	case "track":
		if len(subArgs) < 1 {
			fmt.Fprintln(os.Stderr, "error: track requires a satellite name or NORAD ID")
			os.Exit(2)
		}
		satellite := subArgs[0]
		var noradID int64
		if n, convErr := strconv.ParseInt(satellite, 10, 64); convErr == nil {
			noradID = n
			satellite = ""
		}
		err = ctl.Track(*host, satellite, noradID)

	case "whitelist":
		whitelistFlags := pflag.NewFlagSet("whitelist", pflag.ContinueOnError)
		noradID := whitelistFlags.Int64("norad-id", 0, "NORAD catalog ID")
		enabled := whitelistFlags.Bool("enabled", true, "Enable (true) or disable (false) the satellite")
		_ = whitelistFlags.Parse(subArgs)
		err = ctl.SetWhitelist(*host, *noradID, *enabled)

	case "tle-update":
		if len(subArgs) < 1 {
			fmt.Fprintln(os.Stderr, "error: tle-update requires a filename")
			os.Exit(2)
		}
		err = ctl.UpdateTLE(*host, subArgs[0])

	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  flybyctl — Flyby satellite tracking control CLI

  USAGE
    flybyctl [flags] <command> [command-flags]

  COMMANDS
    status                  Show daemon state, uptime, and tracking status
    satellites              List the satellite catalog with classification
    profiles                List config profiles alongside the running config
    passes                  List upcoming satellite passes
    track <name|norad-id>   Start a single-track session on a satellite
    whitelist                Enable/disable a satellite in the TLE database
    tle-update <file>        Merge a TLE source file into the running database
    watch                    Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    passes:
        --count N           Limit number of passes shown
        --satellite NAME    Filter by satellite name

    whitelist:
        --norad-id ID       NORAD catalog ID
        --enabled BOOL      Enable (default) or disable the satellite

  EXAMPLES
    flybyctl status
    flybyctl --json status
    flybyctl satellites
    flybyctl passes --satellite NOAA-19 --count 5
    flybyctl track NOAA-19
    flybyctl track 25338
    flybyctl whitelist --norad-id 25338 --enabled=false
    flybyctl tle-update ~/Downloads/amateur.txt
    flybyctl --host http://192.168.8.1:8080 watch --filter state,controller_tick

`)
}
