package cmd

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Environment variables that provide flag defaults. They can be set in a .env
// file in the working directory.
const (
	envDB             = "CACHESIM_DB"
	envLogLevel       = "CACHESIM_LOG_LEVEL"
	envMonitorPort    = "CACHESIM_MONITOR_PORT"
	envReadMissPolicy = "CACHESIM_READ_MISS_POLICY"
)

type options struct {
	readMissPolicy string
	quiet          bool
	logLevel       string
	db             string
	recordAccesses bool
	monitor        bool
	monitorPort    int
	openBrowser    bool
}

func defaultOptions() *options {
	o := &options{
		readMissPolicy: "allocate",
		logLevel:       "warning",
	}

	if v, ok := os.LookupEnv(envReadMissPolicy); ok {
		o.readMissPolicy = v
	}

	if v, ok := os.LookupEnv(envLogLevel); ok {
		o.logLevel = v
	}

	if v, ok := os.LookupEnv(envDB); ok {
		o.db = v
	}

	if v, ok := os.LookupEnv(envMonitorPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			logrus.WithField(envMonitorPort, v).Warn("ignoring invalid port")
		} else {
			o.monitorPort = port
		}
	}

	return o
}

func (o *options) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&o.readMissPolicy, "read-miss-policy", o.readMissPolicy,
		"whether read misses fill the caches, allocate or no-allocate")
	flags.BoolVar(&o.quiet, "quiet", o.quiet,
		"do not announce write-backs")
	flags.StringVar(&o.logLevel, "log-level", o.logLevel,
		"log level: panic, fatal, error, warning, info, debug or trace")
	flags.StringVar(&o.db, "db", o.db,
		"record statistics and write-backs into <db>.sqlite3")
	flags.BoolVar(&o.recordAccesses, "record-accesses", o.recordAccesses,
		"also record every cache access, requires --db")
	flags.BoolVar(&o.monitor, "monitor", o.monitor,
		"serve the simulation state over HTTP")
	flags.IntVar(&o.monitorPort, "monitor-port", o.monitorPort,
		"port of the monitoring server, random if 0")
	flags.BoolVar(&o.openBrowser, "open-browser", o.openBrowser,
		"open the monitoring page in a browser, requires --monitor")
}
