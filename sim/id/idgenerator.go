// Package id generates identifiers for recorded entries and runs.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator that counts up from 1. The IDs are
// deterministic across runs.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewGlobalIDGenerator returns a generator whose IDs are unique across runs
// and machines.
func NewGlobalIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type xidGenerator struct {
}

func (g xidGenerator) Generate() string {
	return xid.New().String()
}
