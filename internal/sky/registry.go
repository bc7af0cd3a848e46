package sky

// Registry maps viewports to their sky state. Entries keep registration
// order so that the fallback for an unknown viewport is stable.
type Registry struct {
	def     *ViewState
	entries map[ViewID]*ViewState
	order   []ViewID
}

func newRegistry(def *ViewState) *Registry {
	return &Registry{def: def, entries: make(map[ViewID]*ViewState)}
}

// Default returns the template state.
func (r *Registry) Default() *ViewState { return r.def }

// Len returns the number of registered viewports.
func (r *Registry) Len() int { return len(r.order) }

// Lookup returns the state registered for id.
func (r *Registry) Lookup(id ViewID) (*ViewState, bool) {
	vs, ok := r.entries[id]
	return vs, ok
}

// Resolve returns the state to render for id: its own if registered,
// otherwise the earliest registered state, otherwise the default. The bool
// reports an exact match.
func (r *Registry) Resolve(id ViewID) (*ViewState, bool) {
	if vs, ok := r.entries[id]; ok {
		return vs, true
	}
	if len(r.order) > 0 {
		return r.entries[r.order[0]], false
	}
	return r.def, false
}

// States returns the registered states in registration order.
func (r *Registry) States() []*ViewState {
	out := make([]*ViewState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// IDs returns the registered viewport ids in registration order.
func (r *Registry) IDs() []ViewID {
	return append([]ViewID(nil), r.order...)
}

// each calls fn for the default state and then every registered state.
func (r *Registry) each(fn func(*ViewState)) {
	fn(r.def)
	for _, id := range r.order {
		fn(r.entries[id])
	}
}

func (r *Registry) add(vs *ViewState) {
	r.entries[vs.id] = vs
	r.order = append(r.order, vs.id)
}

func (r *Registry) remove(id ViewID) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}
