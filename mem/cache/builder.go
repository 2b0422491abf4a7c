package cache

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// ErrInvalidGeometry is returned when the size, associativity and block size
// of a cache do not describe a whole, positive number of sets.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Builder can build caches.
type Builder struct {
	byteSize         int
	wayAssociativity int
	blockSize        int
	replaceStrategy  string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		byteSize:         16 * 1024,
		wayAssociativity: 4,
		blockSize:        64,
		replaceStrategy:  "lru",
	}
}

// WithByteSize sets the total capacity of the cache in bytes.
func (b Builder) WithByteSize(byteSize int) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithBlockSize sets the size of a cache line in bytes.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithReplaceStrategy sets the replacement policy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// Build builds a cache.
func (b Builder) Build(name string) (*Cache, error) {
	if err := b.geometryMustBeValid(); err != nil {
		return nil, fmt.Errorf("cache %s: %w", name, err)
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", name, err)
	}

	numSets := b.byteSize / (b.wayAssociativity * b.blockSize)

	c := &Cache{
		name:             name,
		byteSize:         uint64(b.byteSize),
		wayAssociativity: b.wayAssociativity,
		blockSize:        uint64(b.blockSize),
		numSets:          uint64(numSets),
		sets:             make([]*tagging.Set, numSets),
	}

	for i := range c.sets {
		c.sets[i] = tagging.NewSet(b.wayAssociativity, victimFinder)
	}

	return c, nil
}

func (b Builder) geometryMustBeValid() error {
	if b.byteSize <= 0 || b.wayAssociativity <= 0 || b.blockSize <= 0 {
		return fmt.Errorf(
			"%w: size %d, associativity %d and block size %d must be positive",
			ErrInvalidGeometry, b.byteSize, b.wayAssociativity, b.blockSize)
	}

	// Compared by division, as the set size may overflow an int.
	if b.blockSize > b.byteSize/b.wayAssociativity {
		return fmt.Errorf(
			"%w: size %d is smaller than one set of %d blocks of %d bytes",
			ErrInvalidGeometry, b.byteSize, b.wayAssociativity, b.blockSize)
	}

	setSize := b.wayAssociativity * b.blockSize
	if b.byteSize%setSize != 0 {
		return fmt.Errorf(
			"%w: size %d is not a whole number of %d-byte sets",
			ErrInvalidGeometry, b.byteSize, setSize)
	}

	return nil
}

func (b Builder) createVictimFinder() (tagging.VictimFinder, error) {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder(), nil
	default:
		return nil, fmt.Errorf("unknown replace strategy: %s", b.replaceStrategy)
	}
}
