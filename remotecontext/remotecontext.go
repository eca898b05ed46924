// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package remotecontext implements RemoteContext, the per-evaluation
// variable-binding service and fresh-name generator described in
// spec §4.1. A RemoteContext provides (1) a mutable mapping from
// variable name to values.DynamicValue and (2) a monotonic
// fresh-name generator. RemoteContext is modeled on the binding
// environment in github.com/grailbio/reflow/values (Env/Symtab),
// simplified to the core's flat, single-level binding discipline:
// closures here are compiled away at construction time (spec §3.5,
// §9), so unlike the teacher's lexically nested Env, one flat symbol
// table per RemoteContext suffices.
package remotecontext

import (
	"strconv"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/grailbio/remoteflow/log"
	"github.com/grailbio/remoteflow/values"
)

// Context is the variable-binding service a RemoteContext
// implementation provides (spec §4.1). A single Context is owned by
// one evaluation at a time; it is not required to be
// concurrency-safe unless constructed via NewAtomic or NewCached.
type Context interface {
	// GetVariable looks up name. An absent name is not an error at
	// this level; the caller (the evaluator) decides whether that
	// constitutes an Unbound failure.
	GetVariable(name string) (values.DynamicValue, bool)
	// SetVariable stores or overwrites the binding for name.
	SetVariable(name string, v values.DynamicValue)
	// FreshName returns a string unique within the process. The
	// fresh-name generator must never reuse a name within a process
	// lifetime.
	FreshName() string
}

// inMemory is the plain-mapping-backed-by-a-counter construction mode
// (spec §4.1 "In-memory").
type inMemory struct {
	mu      sync.Mutex
	symtab  map[string]values.DynamicValue
	counter int64
	atomic  bool
}

// New constructs an in-memory RemoteContext. It is not
// concurrency-safe, per spec §4.1's contract: a single RemoteContext
// is owned by one evaluation at a time.
func New() Context {
	return &inMemory{symtab: make(map[string]values.DynamicValue)}
}

// NewAtomic constructs an in-memory RemoteContext whose FreshName
// uses an atomic counter, for use when a single fresh-name generator
// is shared across sibling evaluations that otherwise each own an
// independent symbol table (spec §5 "Shared resources").
func NewAtomic() Context {
	return &inMemory{symtab: make(map[string]values.DynamicValue), atomic: true}
}

func (c *inMemory) GetVariable(name string) (values.DynamicValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.symtab[name]
	return v, ok
}

func (c *inMemory) SetVariable(name string, v values.DynamicValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symtab[name] = v
}

func (c *inMemory) FreshName() string {
	var n int64
	if c.atomic {
		n = atomic.AddInt64(&c.counter, 1)
	} else {
		c.mu.Lock()
		c.counter++
		n = c.counter
		c.mu.Unlock()
	}
	return "$v_" + strconv.FormatInt(n, 10)
}

// Store is the backing persistent key-value store an externalized
// RemoteContext delegates to (spec §4.1 "Externalized"): irrelevant
// to core correctness, and supplied by the host application (e.g.
// the orchestrator persisting bindings across restarts).
type Store interface {
	Get(name string) (values.DynamicValue, bool, error)
	Set(name string, v values.DynamicValue) error
}

// cached is the Externalized construction mode: an LRU cache in front
// of a slower Store, the same "cache in front of a backing store"
// shape as the teacher's pool/repository packages.
type cached struct {
	inMemory // reuses inMemory's counter-backed FreshName
	store    Store
	cache    *lru.Cache
}

// NewCached constructs an externalized RemoteContext: it delegates
// GetVariable/SetVariable to store, through an LRU cache of the given
// capacity holding recently touched variables.
func NewCached(store Store, capacity int) Context {
	cache, err := lru.New(capacity)
	if err != nil {
		// Only returns an error for a non-positive capacity; a
		// construction-time misconfiguration, not a runtime condition.
		panic(err)
	}
	return &cached{store: store, cache: cache}
}

func (c *cached) GetVariable(name string) (values.DynamicValue, bool) {
	if v, ok := c.cache.Get(name); ok {
		log.Debugf("remotecontext: cache hit for %s", name)
		return v.(values.DynamicValue), true
	}
	log.Debugf("remotecontext: cache miss for %s, falling through to store", name)
	v, ok, err := c.store.Get(name)
	if err != nil {
		log.Errorf("remotecontext: store.Get(%s): %v", name, err)
		return values.DynamicValue{}, false
	}
	if ok {
		c.cache.Add(name, v)
	}
	return v, ok
}

func (c *cached) SetVariable(name string, v values.DynamicValue) {
	c.cache.Add(name, v)
	if err := c.store.Set(name, v); err != nil {
		log.Errorf("remotecontext: store.Set(%s): %v", name, err)
	}
}
