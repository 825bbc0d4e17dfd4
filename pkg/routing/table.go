package routing

import (
	"github.com/vyrodovalexey/avaroute/internal/queue"
)

// source yields the registrations a dispatch matches against.
type source interface {
	snapshot() []*Registration
}

// table holds registrations newest first. Every register replaces the
// slice, so a snapshot handed out earlier never changes.
type table struct {
	access  *queue.AccessQueue
	entries []*Registration
}

func newTable() *table {
	return &table{access: queue.NewAccessQueue()}
}

// register inserts reg at the head. It returns before the insert is
// applied; any later snapshot, from any goroutine, includes it. False
// means the table is closed.
func (t *table) register(reg *Registration) bool {
	return t.access.Barrier(func() {
		next := make([]*Registration, len(t.entries)+1)
		next[0] = reg
		copy(next[1:], t.entries)
		t.entries = next
	})
}

// snapshot returns the registrations in table order. The result must not
// be modified.
func (t *table) snapshot() []*Registration {
	var entries []*Registration
	t.access.Read(func() {
		entries = t.entries
	})
	return entries
}

// Len returns the number of registrations.
func (t *table) Len() int {
	return len(t.snapshot())
}

// filteredByTags projects the table onto the registrations intersecting
// every one of the given tag sets.
func (t *table) filteredByTags(filters ...tagSet) *tableView {
	return &tableView{parent: t, filters: filters}
}

func (t *table) close() {
	t.access.Close()
}

// tableView is a read-only tag projection of a table. It shares the
// parent's order.
type tableView struct {
	parent  *table
	filters []tagSet
}

func (v *tableView) snapshot() []*Registration {
	entries := v.parent.snapshot()
	out := make([]*Registration, 0, len(entries))
	for _, reg := range entries {
		if v.accepts(reg) {
			out = append(out, reg)
		}
	}
	return out
}

func (v *tableView) accepts(reg *Registration) bool {
	for _, filter := range v.filters {
		if !reg.tags.intersects(filter) {
			return false
		}
	}
	return true
}

// firstRoute returns the first route in entries matching path.
func firstRoute(entries []*Registration, path string) *Registration {
	for _, reg := range entries {
		if reg.kind != KindRoute {
			continue
		}
		if matched, _ := reg.matcher.Match(path); matched {
			return reg
		}
	}
	return nil
}

// matchingProxies returns the proxies in entries matching path, in
// table order.
func matchingProxies(entries []*Registration, path string) []*Registration {
	var out []*Registration
	for _, reg := range entries {
		if reg.kind != KindProxy {
			continue
		}
		if matched, _ := reg.matcher.Match(path); matched {
			out = append(out, reg)
		}
	}
	return out
}
