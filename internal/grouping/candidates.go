package grouping

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// coordinateBucket renders a position rounded to 6 decimal degrees, roughly
// 11 cm. Groups landing in the same bucket are coordinate-collision
// candidates. Rounding happens numerically before formatting so values on
// either side of zero share a bucket: %.6f alone would render a tiny
// negative as "-0.000000" and split it from "0.000000".
func coordinateBucket(lat, lon float64) string {
	return fmt.Sprintf("%.6f:%.6f", roundDegrees(lat), roundDegrees(lon))
}

func roundDegrees(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0 // collapse negative zero
	}
	return r
}

// BuildCandidates produces the deduplicated pool of group pairs eligible for
// human merge review. Two generators feed it: groups whose representative
// coordinates collide at fixed precision, and externally supplied similarity
// hints. Pairs with any existing decision are excluded; once a human has
// ruled on a pair it never resurfaces, in either orientation. The result is
// sorted by pair key so the pool is deterministic for a given snapshot.
func BuildCandidates(groups []*Group, hints []Pair, decided map[string]struct{}) []Pair {
	known := make(map[string]struct{}, len(groups))
	buckets := make(map[string][]string)
	for _, group := range groups {
		if group == nil || group.Key == "" {
			continue
		}
		known[group.Key] = struct{}{}
		if group.Coordinate == nil {
			// Groups without a resolvable position still exist, they just
			// never enter spatial candidate generation.
			continue
		}
		bucket := coordinateBucket(group.Coordinate.Lat, group.Coordinate.Lon)
		buckets[bucket] = append(buckets[bucket], group.Key)
	}

	seen := make(map[string]struct{})
	pool := make([]Pair, 0)

	add := func(a, b string) {
		pair, ok := NewPair(a, b)
		if !ok {
			return
		}
		key := pair.Key()
		if _, dup := seen[key]; dup {
			return
		}
		if _, ruled := decided[key]; ruled {
			return
		}
		seen[key] = struct{}{}
		pool = append(pool, pair)
	}

	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				add(members[i], members[j])
			}
		}
	}

	for _, hint := range hints {
		// Hints may reference groups merged away or absent from this corpus.
		if _, ok := known[hint.A]; !ok {
			continue
		}
		if _, ok := known[hint.B]; !ok {
			continue
		}
		add(hint.A, hint.B)
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].Key() < pool[j].Key() })
	return pool
}

// CandidateQueue serves candidate pairs for one review sitting: a shuffled
// pool drained without replacement, refilled and reshuffled once exhausted,
// with a history stack so the reviewer can step back. Not safe for
// concurrent use; each session owns its queue.
type CandidateQueue struct {
	all     []Pair
	pool    []Pair
	history []Pair
	rng     *rand.Rand
}

// NewCandidateQueue builds a queue over the candidate pool. The seed fixes
// the shuffle order, which tests rely on.
func NewCandidateQueue(pairs []Pair, seed int64) *CandidateQueue {
	q := &CandidateQueue{
		all: append([]Pair(nil), pairs...),
		rng: rand.New(rand.NewSource(seed)),
	}
	q.refill()
	return q
}

func (q *CandidateQueue) refill() {
	q.pool = append(q.pool[:0], q.all...)
	q.rng.Shuffle(len(q.pool), func(i, j int) {
		q.pool[i], q.pool[j] = q.pool[j], q.pool[i]
	})
}

// Len reports how many pairs remain before the next refill.
func (q *CandidateQueue) Len() int {
	return len(q.pool)
}

// Total reports the size of the underlying pool.
func (q *CandidateQueue) Total() int {
	return len(q.all)
}

// Next draws the next pair without replacement, refilling the pool once it
// runs dry. ok is false only when the pool is empty altogether.
func (q *CandidateQueue) Next() (Pair, bool) {
	if len(q.all) == 0 {
		return Pair{}, false
	}
	if len(q.pool) == 0 {
		q.refill()
	}
	pair := q.pool[len(q.pool)-1]
	q.pool = q.pool[:len(q.pool)-1]
	q.history = append(q.history, pair)
	return pair, true
}

// Previous steps back to the pair served before the current one. The current
// pair returns to the pool so it is drawn again later. ok is false when
// there is no earlier pair to go back to.
func (q *CandidateQueue) Previous() (Pair, bool) {
	if len(q.history) < 2 {
		return Pair{}, false
	}
	current := q.history[len(q.history)-1]
	q.history = q.history[:len(q.history)-1]
	q.pool = append(q.pool, current)
	return q.history[len(q.history)-1], true
}
