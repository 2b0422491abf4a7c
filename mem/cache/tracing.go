package cache

import (
	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosAccess marks a read or a write that reaches the cache. The item is
// an AccessEvent.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// HookPosWriteBack marks a dirty block leaving the cache for the next level.
// The item is an Eviction.
var HookPosWriteBack = &hooking.HookPos{Name: "CacheWriteBack"}

// AccessEvent describes one read or write seen by a cache.
type AccessEvent struct {
	Address uint64
	IsWrite bool
	Hit     bool
}

func (c *Cache) traceAccess(address uint64, isWrite, hit bool) {
	if c.NumHooks() == 0 {
		return
	}

	ctx := hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item: AccessEvent{
			Address: address,
			IsWrite: isWrite,
			Hit:     hit,
		},
	}

	c.InvokeHook(ctx)
}

func (c *Cache) traceWriteBack(eviction Eviction) {
	if c.NumHooks() == 0 {
		return
	}

	ctx := hooking.HookCtx{
		Domain: c,
		Pos:    HookPosWriteBack,
		Item:   eviction,
	}

	c.InvokeHook(ctx)
}
