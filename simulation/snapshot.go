package simulation

import (
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/victim"
	"github.com/sarchlab/cachesim/monitoring"
)

const (
	cacheStatsTable  = "cache_stats"
	victimStatsTable = "victim_cache_stats"
)

// CacheSnapshot is the state of a cache shown by the monitor.
type CacheSnapshot struct {
	Name             string
	ByteSize         uint64
	WayAssociativity int
	BlockSize        uint64
	NumSets          uint64
	ValidBlocks      int
	Stats            cache.Stats
}

// VictimCacheSnapshot is the state of a victim cache shown by the monitor.
type VictimCacheSnapshot struct {
	Name      string
	NumBlocks int
	Len       int
	Stats     victim.Stats
}

// MemorySnapshot is the state of the main memory shown by the monitor.
type MemorySnapshot struct {
	WriteBacks uint64
	Records    uint64
}

type cacheStatsEntry struct {
	RunID       string
	Cache       string
	Reads       uint64
	ReadMisses  uint64
	Writes      uint64
	WriteMisses uint64
	WriteBacks  uint64
}

type victimStatsEntry struct {
	RunID          string
	Cache          string
	Lookups        uint64
	Hits           uint64
	Insertions     uint64
	Evictions      uint64
	DirtyEvictions uint64
}

func takeCacheSnapshot(c *cache.Cache) *CacheSnapshot {
	valid := 0
	for _, n := range c.ValidBlocks() {
		valid += n
	}

	return &CacheSnapshot{
		Name:             c.Name(),
		ByteSize:         c.ByteSize(),
		WayAssociativity: c.WayAssociativity(),
		BlockSize:        c.BlockSize(),
		NumSets:          c.NumSets(),
		ValidBlocks:      valid,
		Stats:            c.Stats(),
	}
}

func (s *Simulation) publish() {
	if s.monitor == nil {
		return
	}

	s.monitor.Publish(s.l1.Name(), takeCacheSnapshot(s.l1))

	if s.vc != nil {
		s.monitor.Publish(s.vc.Name(), &VictimCacheSnapshot{
			Name:      s.vc.Name(),
			NumBlocks: s.vc.NumBlocks(),
			Len:       s.vc.Len(),
			Stats:     s.vc.Stats(),
		})
	}

	if s.l2 != nil {
		s.monitor.Publish(s.l2.Name(), takeCacheSnapshot(s.l2))
	}

	s.monitor.Publish("Memory", &MemorySnapshot{
		WriteBacks: s.memoryWriteBacks,
		Records:    s.numRecords,
	})
}

func (s *Simulation) updateProgress(
	bar *monitoring.ProgressBar,
	src RecordSource,
) {
	if bar == nil {
		return
	}

	counter, ok := src.(byteCounter)
	if !ok {
		return
	}

	bar.SetFinished(uint64(counter.BytesRead()))
}

func (s *Simulation) recordStats() {
	if s.dataRecorder == nil {
		return
	}

	s.recordCacheStats(s.l1)

	if s.l2 != nil {
		s.recordCacheStats(s.l2)
	}

	if s.vc != nil {
		stats := s.vc.Stats()
		s.dataRecorder.InsertData(victimStatsTable, victimStatsEntry{
			RunID:          s.id,
			Cache:          s.vc.Name(),
			Lookups:        stats.Lookups,
			Hits:           stats.Hits,
			Insertions:     stats.Insertions,
			Evictions:      stats.Evictions,
			DirtyEvictions: stats.DirtyEvictions,
		})
	}

	s.dataRecorder.Flush()
}

func (s *Simulation) recordCacheStats(c *cache.Cache) {
	stats := c.Stats()

	s.dataRecorder.InsertData(cacheStatsTable, cacheStatsEntry{
		RunID:       s.id,
		Cache:       c.Name(),
		Reads:       stats.Reads,
		ReadMisses:  stats.ReadMisses,
		Writes:      stats.Writes,
		WriteMisses: stats.WriteMisses,
		WriteBacks:  stats.WriteBacks,
	})
}
