package simulation

import (
	"fmt"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/victim"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
	"github.com/sirupsen/logrus"
)

// Builder can be used to build a simulation.
type Builder struct {
	l1              cache.Builder
	l2              cache.Builder
	withL2          bool
	vcNumBlocks     int
	readMissPolicy  ReadMissPolicy
	monitor         *monitoring.Monitor
	dataRecorder    datarecording.DataRecorder
	recordAccesses  bool
	hooks           []hooking.Hook
	logger          logrus.FieldLogger
	publishInterval uint64
	traceSize       int64
}

// MakeBuilder creates a new builder with a default L1, no victim cache and
// no L2.
func MakeBuilder() Builder {
	return Builder{
		l1:              cache.MakeBuilder(),
		readMissPolicy:  AllocateOnReadMiss,
		logger:          logrus.StandardLogger(),
		publishInterval: 4096,
	}
}

// WithL1 sets how the L1 cache is built.
func (b Builder) WithL1(l1 cache.Builder) Builder {
	b.l1 = l1
	return b
}

// WithL2 adds an L2 cache. Its block size is replaced by the L1 block size.
func (b Builder) WithL2(l2 cache.Builder) Builder {
	b.l2 = l2
	b.withL2 = true

	return b
}

// WithVictimCache adds a victim cache of numBlocks blocks between L1 and the
// next level. Zero removes the victim cache.
func (b Builder) WithVictimCache(numBlocks int) Builder {
	b.vcNumBlocks = numBlocks
	return b
}

// WithReadMissPolicy sets whether read misses fill the caches.
func (b Builder) WithReadMissPolicy(p ReadMissPolicy) Builder {
	b.readMissPolicy = p
	return b
}

// WithMonitor publishes the state of the caches to a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithDataRecorder records write-backs and final statistics. If
// recordAccesses is set, every cache access is recorded as well.
func (b Builder) WithDataRecorder(
	dr datarecording.DataRecorder,
	recordAccesses bool,
) Builder {
	b.dataRecorder = dr
	b.recordAccesses = recordAccesses

	return b
}

// WithHook registers a hook on every cache level.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), h)
	return b
}

// WithLogger sets the logger used for warnings and debug messages.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithPublishInterval sets after how many records the monitor receives new
// snapshots.
func (b Builder) WithPublishInterval(n uint64) Builder {
	b.publishInterval = n
	return b
}

// WithTraceSize sets the size in bytes of the trace, which is shown as the
// total of the progress bar.
func (b Builder) WithTraceSize(size int64) Builder {
	b.traceSize = size
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.vcNumBlocks < 0 {
		return fmt.Errorf("%w: %d blocks", victim.ErrInvalidCapacity,
			b.vcNumBlocks)
	}

	if b.publishInterval == 0 {
		return fmt.Errorf("publish interval must be positive")
	}

	return nil
}

// Build builds the simulation. The caches that are present are decided here
// and do not change during the run.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:              id.NewGlobalIDGenerator().Generate(),
		readMissPolicy:  b.readMissPolicy,
		logger:          b.logger,
		monitor:         b.monitor,
		dataRecorder:    b.dataRecorder,
		publishInterval: b.publishInterval,
		traceSize:       b.traceSize,
	}

	if err := b.buildCaches(s); err != nil {
		return nil, err
	}

	b.installEvictionHandlers(s)
	b.installHooks(s)

	if s.dataRecorder != nil {
		s.dataRecorder.CreateTable(cacheStatsTable, cacheStatsEntry{})
		s.dataRecorder.CreateTable(victimStatsTable, victimStatsEntry{})
	}

	return s, nil
}

func (b Builder) buildCaches(s *Simulation) error {
	l1, err := b.l1.Build("L1")
	if err != nil {
		return err
	}

	s.l1 = l1

	if b.vcNumBlocks > 0 {
		vc, err := victim.MakeBuilder().
			WithNumBlocks(b.vcNumBlocks).
			WithBlockSize(int(l1.BlockSize())).
			Build("VC")
		if err != nil {
			return err
		}

		s.vc = vc
	}

	if b.withL2 {
		l2, err := b.l2.WithBlockSize(int(l1.BlockSize())).Build("L2")
		if err != nil {
			return err
		}

		s.l2 = l2
	}

	return nil
}

func (b Builder) installEvictionHandlers(s *Simulation) {
	if s.vc != nil {
		s.l1.SetEvictionHandler(cache.EvictionHandlerFunc(s.evictToVictimCache))
	} else {
		s.l1.SetEvictionHandler(cache.EvictionHandlerFunc(s.evictToNextLevel))
	}

	if s.l2 != nil {
		s.l2.SetEvictionHandler(cache.EvictionHandlerFunc(s.evictToMemory))
	}
}

func (b Builder) installHooks(s *Simulation) {
	hooks := b.hooks

	if b.dataRecorder != nil {
		hooks = append(hooks, trace.NewDBTracer(b.dataRecorder, b.recordAccesses))
	}

	for _, h := range hooks {
		s.l1.AcceptHook(h)

		if s.l2 != nil {
			s.l2.AcceptHook(h)
		}
	}
}
