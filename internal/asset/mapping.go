package asset

// Mapping maps each distinct specifier of an asset to the asset it resolved to.
// Iteration follows insertion order.
type Mapping struct {
	keys []string
	ids  map[string]ID
}

// NewMapping returns an empty mapping sized for n specifiers.
func NewMapping(n int) *Mapping {
	return &Mapping{
		keys: make([]string, 0, n),
		ids:  make(map[string]ID, n),
	}
}

// Set records spec -> id. It returns false and keeps the first binding
// when spec is already present.
func (m *Mapping) Set(spec string, id ID) bool {
	if _, ok := m.ids[spec]; ok {
		return false
	}
	m.keys = append(m.keys, spec)
	m.ids[spec] = id
	return true
}

// Put binds spec to id, replacing an earlier binding in place.
func (m *Mapping) Put(spec string, id ID) {
	if _, ok := m.ids[spec]; !ok {
		m.keys = append(m.keys, spec)
	}
	m.ids[spec] = id
}

// Get returns the id bound to spec.
func (m *Mapping) Get(spec string) (ID, bool) {
	if m == nil {
		return 0, false
	}
	id, ok := m.ids[spec]
	return id, ok
}

// Len returns the number of distinct specifiers.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns specifiers in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Entry is one specifier binding.
type Entry struct {
	Specifier string
	ID        ID
}

// Entries returns bindings in insertion order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Specifier: k, ID: m.ids[k]}
	}
	return out
}
