package statusline

// Registry holds the ordered fragment list. Order is significant: the
// composed line preserves registry order within each alignment group,
// and the list changes only through explicit Prepend and Append calls,
// never by implicit reordering.
//
// A Registry belongs to the host event loop and is not safe for
// concurrent use. Configuration reloads build a fresh registry and
// swap it in with Loop.SetRegistry from the loop.
type Registry struct {
	descs []Descriptor
}

// NewRegistry builds a registry holding the given descriptors in order.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{descs: make([]Descriptor, len(descs))}
	copy(r.descs, descs)
	return r
}

// Append adds a fragment at the back of the list.
func (r *Registry) Append(d Descriptor) {
	r.descs = append(r.descs, d)
}

// Prepend adds a fragment at the front of the list.
func (r *Registry) Prepend(d Descriptor) {
	r.descs = append([]Descriptor{d}, r.descs...)
}

// Len returns the number of registered fragments.
func (r *Registry) Len() int {
	return len(r.descs)
}

// Snapshot returns a copy of the descriptor list for one tick's
// evaluation. Registrations made during the tick, by a producer or a
// hook, take effect on the next tick only.
func (r *Registry) Snapshot() []Descriptor {
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out
}
