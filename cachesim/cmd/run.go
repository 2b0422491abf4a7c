package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sirupsen/logrus"
)

func run(out io.Writer, cfg config, opts *options) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}

	policy, err := simulation.ParseReadMissPolicy(opts.readMissPolicy)
	if err != nil {
		return err
	}

	traceFile, err := os.Open(cfg.tracePath)
	if err != nil {
		return fmt.Errorf("error opening trace file: %w", err)
	}
	defer traceFile.Close()

	builder := simulation.MakeBuilder().
		WithL1(cache.MakeBuilder().
			WithByteSize(cfg.l1Size).
			WithWayAssociativity(cfg.l1Assoc).
			WithBlockSize(cfg.l1BlockSize)).
		WithReadMissPolicy(policy).
		WithLogger(logger)

	if cfg.hasVictimCache() {
		builder = builder.WithVictimCache(cfg.vcNumBlocks)
	}

	if cfg.hasL2() {
		builder = builder.WithL2(cache.MakeBuilder().
			WithByteSize(cfg.l2Size).
			WithWayAssociativity(cfg.l2Assoc))
	}

	if info, err := traceFile.Stat(); err == nil {
		builder = builder.WithTraceSize(info.Size())
	}

	if !opts.quiet {
		builder = builder.WithHook(newWriteBackAnnouncer(out))
	}

	if logger.IsLevelEnabled(logrus.TraceLevel) {
		builder = builder.WithHook(hooking.NewLogHook(logger, logrus.TraceLevel))
	}

	builder, cleanup, err := withInstrumentation(builder, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := builder.Build()
	if err != nil {
		return err
	}

	reader := trace.NewReader(traceFile).WithLogger(logger)
	if err := s.Run(reader); err != nil {
		return fmt.Errorf("error reading trace file: %w", err)
	}

	if reader.Skipped() > 0 {
		logger.WithField("lines", reader.Skipped()).
			Warn("skipped trace lines that are not records")
	}

	printStats(out, s)

	return nil
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)

	return logger, nil
}

// withInstrumentation attaches the data recorder and the monitor requested by
// the flags. The returned function releases them.
func withInstrumentation(
	builder simulation.Builder,
	opts *options,
) (simulation.Builder, func(), error) {
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if opts.db != "" {
		recorder, err := datarecording.New(opts.db)
		if err != nil {
			return builder, cleanup, err
		}

		cleanups = append(cleanups, func() { recorder.Close() })
		builder = builder.WithDataRecorder(recorder, opts.recordAccesses)
	} else if opts.recordAccesses {
		logrus.Warn("--record-accesses has no effect without --db")
	}

	if opts.monitor {
		m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)

		url, err := m.StartServer()
		if err != nil {
			cleanup()
			return builder, func() {}, err
		}

		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_ = m.StopServer(ctx)
		})

		if opts.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				logrus.WithError(err).Warn("failed to open browser")
			}
		}

		builder = builder.WithMonitor(m)
	} else if opts.openBrowser {
		logrus.Warn("--open-browser has no effect without --monitor")
	}

	return builder, cleanup, nil
}
