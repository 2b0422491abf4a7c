package simulation

import (
	"fmt"
	"strings"
)

// ReadMissPolicy decides whether a read miss brings the block into the
// caches.
type ReadMissPolicy int

const (
	// AllocateOnReadMiss fills L2 and L1 with the missing block.
	AllocateOnReadMiss ReadMissPolicy = iota

	// NoAllocateOnReadMiss only counts read misses. Blocks enter the caches
	// through writes.
	NoAllocateOnReadMiss
)

func (p ReadMissPolicy) String() string {
	switch p {
	case AllocateOnReadMiss:
		return "allocate"
	case NoAllocateOnReadMiss:
		return "no-allocate"
	default:
		return fmt.Sprintf("ReadMissPolicy(%d)", int(p))
	}
}

// ParseReadMissPolicy converts "allocate" or "no-allocate" to a policy.
func ParseReadMissPolicy(s string) (ReadMissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allocate", "":
		return AllocateOnReadMiss, nil
	case "no-allocate", "noallocate":
		return NoAllocateOnReadMiss, nil
	default:
		return 0, fmt.Errorf("unknown read miss policy %q", s)
	}
}
