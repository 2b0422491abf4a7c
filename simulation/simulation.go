// Package simulation runs memory traces through a cache hierarchy made of an
// L1 cache, an optional victim cache and an optional L2 cache.
package simulation

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/victim"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sirupsen/logrus"
)

// A RecordSource provides the records of a trace one at a time.
type RecordSource interface {
	Next() (trace.Record, bool)
	Err() error
}

type byteCounter interface {
	BytesRead() int64
}

// A Simulation drives trace records through the cache hierarchy. It does not
// own any cache state other than the caches it was built with.
type Simulation struct {
	id string

	l1 *cache.Cache
	vc *victim.Cache
	l2 *cache.Cache

	readMissPolicy ReadMissPolicy
	logger         logrus.FieldLogger

	monitor         *monitoring.Monitor
	dataRecorder    datarecording.DataRecorder
	publishInterval uint64
	traceSize       int64

	numRecords       uint64
	memoryWriteBacks uint64
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// L1 returns the L1 cache.
func (s *Simulation) L1() *cache.Cache {
	return s.l1
}

// L2 returns the L2 cache, or nil if there is none.
func (s *Simulation) L2() *cache.Cache {
	return s.l2
}

// VictimCache returns the victim cache, or nil if there is none.
func (s *Simulation) VictimCache() *victim.Cache {
	return s.vc
}

// ReadMissPolicy returns the read miss policy in use.
func (s *Simulation) ReadMissPolicy() ReadMissPolicy {
	return s.readMissPolicy
}

// NumRecords returns the number of records processed.
func (s *Simulation) NumRecords() uint64 {
	return s.numRecords
}

// MemoryWriteBacks returns the number of blocks written back to memory.
func (s *Simulation) MemoryWriteBacks() uint64 {
	return s.memoryWriteBacks
}

// Step processes one trace record.
func (s *Simulation) Step(record trace.Record) {
	switch record.Op {
	case trace.OpRead:
		s.read(record.Address)
	case trace.OpWrite:
		s.write(record.Address)
	default:
		s.logger.WithField("op", record.Op).Debug("ignoring trace record")
		return
	}

	s.numRecords++
}

// Run processes all the records of a source. The statistics are published and
// recorded at the end, also when the source fails.
func (s *Simulation) Run(src RecordSource) error {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Trace", uint64(max(s.traceSize, 0)))
	}

	for {
		record, ok := src.Next()
		if !ok {
			break
		}

		s.Step(record)

		if s.numRecords%s.publishInterval == 0 {
			s.publish()
			s.updateProgress(bar, src)
		}
	}

	s.publish()
	s.updateProgress(bar, src)
	s.recordStats()

	return src.Err()
}

func (s *Simulation) read(address uint64) {
	if s.l1.Read(address) {
		return
	}

	if s.vc != nil {
		if block, found := s.vc.Take(address); found {
			s.l1.Allocate(address, block.Dirty)
			return
		}
	}

	if s.l2 != nil {
		hit := s.l2.Read(address)
		if !hit && s.readMissPolicy == AllocateOnReadMiss {
			s.l2.Allocate(address, false)
		}
	}

	if s.readMissPolicy == AllocateOnReadMiss {
		s.l1.Allocate(address, false)
	}
}

func (s *Simulation) write(address uint64) {
	if s.vc != nil && !s.l1.Peek(address) {
		s.vc.Remove(address)
	}

	s.l1.Write(address)
}

// evictToVictimCache keeps every L1 victim in the victim cache. The block that
// the victim cache displaces leaves L1's domain.
func (s *Simulation) evictToVictimCache(from *cache.Cache, e cache.Eviction) {
	displaced, ok := s.vc.Insert(e)
	if !ok || !displaced.Dirty {
		return
	}

	from.WriteBack(displaced)
	s.writeToNextLevel(displaced)
}

func (s *Simulation) evictToNextLevel(from *cache.Cache, e cache.Eviction) {
	if !e.Dirty {
		return
	}

	from.WriteBack(e)
	s.writeToNextLevel(e)
}

func (s *Simulation) evictToMemory(from *cache.Cache, e cache.Eviction) {
	if !e.Dirty {
		return
	}

	from.WriteBack(e)
	s.writeToMemory(e)
}

func (s *Simulation) writeToNextLevel(e cache.Eviction) {
	if s.l2 != nil {
		s.l2.Write(e.Address)
		return
	}

	s.writeToMemory(e)
}

func (s *Simulation) writeToMemory(e cache.Eviction) {
	s.memoryWriteBacks++

	s.logger.WithField("address", e.Address).Info("written back to memory")
}
