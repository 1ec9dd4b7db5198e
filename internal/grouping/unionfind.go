package grouping

// Resolver maintains equivalence classes over group keys. The representative
// of a class is always the lexicographically smallest key that has ever been
// a root of it, which makes resolution deterministic regardless of the order
// merge decisions were observed in.
type Resolver struct {
	parent map[string]string
}

// NewResolver builds singleton classes for every key in the universe.
func NewResolver(universe []string) *Resolver {
	r := &Resolver{parent: make(map[string]string, len(universe))}
	for _, key := range universe {
		r.registerIfAbsent(key)
	}
	return r
}

// registerIfAbsent lazily adds an unseen key as its own singleton class.
// Corrections may reference keys outside the loaded corpus; resolution must
// self-heal rather than fail.
func (r *Resolver) registerIfAbsent(key string) {
	if key == "" {
		return
	}
	if _, ok := r.parent[key]; !ok {
		r.parent[key] = key
	}
}

// Find returns the canonical representative of key's class, registering the
// key first if it was never seen. Paths are compressed on the way up.
func (r *Resolver) Find(key string) string {
	if key == "" {
		return ""
	}
	r.registerIfAbsent(key)

	root := key
	for r.parent[root] != root {
		root = r.parent[root]
	}
	for current := key; current != root; {
		next := r.parent[current]
		r.parent[current] = root
		current = next
	}
	return root
}

// Union merges the classes of a and b. The lexicographically smaller of the
// two current roots becomes the representative of the merged class.
func (r *Resolver) Union(a, b string) {
	if a == "" || b == "" {
		return
	}
	rootA := r.Find(a)
	rootB := r.Find(b)
	if rootA == rootB {
		return
	}
	if rootA < rootB {
		r.parent[rootB] = rootA
	} else {
		r.parent[rootA] = rootB
	}
}

// Size reports the number of registered keys.
func (r *Resolver) Size() int {
	return len(r.parent)
}

// Canonical resolves every registered key once and returns the resulting
// key-to-representative map. Find and Union mutate the resolver, so the
// resolver itself must stay confined to single-threaded construction; the
// returned map is what may be shared for concurrent reads afterwards.
func (r *Resolver) Canonical() map[string]string {
	canonical := make(map[string]string, len(r.parent))
	for key := range r.parent {
		canonical[key] = r.Find(key)
	}
	return canonical
}

// BuildResolver constructs a resolver from the corpus key universe and folds
// in every historical "same" verdict in append order. "different" verdicts
// never touch the structure: a completed merge cannot be reversed by a later
// disagreement, only suppressed from candidate review. Malformed rows are
// skipped.
func BuildResolver(universe []string, decisions []MergeDecision) *Resolver {
	r := NewResolver(universe)
	for _, d := range decisions {
		if !isUsableMerge(d) || d.Verdict != VerdictSame {
			continue
		}
		r.Union(d.GroupA, d.GroupB)
	}
	return r
}
