// Package events is the in-process change-notification bus. Every completed
// write emits the affected table name so UI consumers can refresh. There is
// no persistence and no replay: a subscriber that registers after an emission
// never sees it, and nothing survives a restart.
package events

import "sync"

// Wildcard subscribers receive every emission regardless of table.
const Wildcard = "*"

// Handler receives the table that changed and the write's payload.
type Handler func(table string, payload interface{})

// Bus is a topic-keyed observer registry. Delivery is synchronous and
// best-effort; subscribing the same consumer twice delivers twice.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers fn for a table name (or Wildcard) and returns an
// unsubscribe handle.
func (b *Bus) Subscribe(table string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]Handler)
	}
	b.subs[table][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[table], id)
	}
}

// Emit delivers payload to the table's subscribers, then to wildcard
// subscribers. Handlers run on the caller's goroutine.
func (b *Bus) Emit(table string, payload interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[table])+len(b.subs[Wildcard]))
	for _, fn := range b.subs[table] {
		handlers = append(handlers, fn)
	}
	if table != Wildcard {
		for _, fn := range b.subs[Wildcard] {
			handlers = append(handlers, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(table, payload)
	}
}

// Default is the process-wide bus the handlers emit on.
var Default = NewBus()

func Subscribe(table string, fn Handler) func() { return Default.Subscribe(table, fn) }
func Emit(table string, payload interface{})    { Default.Emit(table, payload) }
