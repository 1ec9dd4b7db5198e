package httpapi

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"oldprague.photos/fotoatlas/internal/globaltime"
	"oldprague.photos/fotoatlas/internal/grouping"
)

// reviewSession holds one reviewer's shuffled candidate queue. The snapshot
// pointer detects staleness: when a new derivation replaces the snapshot the
// queue is rebuilt so decided pairs stop being served.
type reviewSession struct {
	queue    *grouping.CandidateQueue
	snap     *grouping.Snapshot
	lastSeen time.Time
}

type reviewSessions struct {
	mu       sync.Mutex
	sessions map[string]*reviewSession
}

func newReviewSessions() *reviewSessions {
	return &reviewSessions{sessions: make(map[string]*reviewSession)}
}

func newReviewSessionID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

func queueSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return globaltime.UTC().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// acquire returns the queue for the given session id, creating or rebuilding
// it against the current snapshot as needed. The returned id differs from the
// input when a fresh session was started.
func (r *reviewSessions) acquire(id string, snap *grouping.Snapshot) (string, *grouping.CandidateQueue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := globaltime.UTC()
	r.pruneLocked(now)

	if id != "" {
		if sess, ok := r.sessions[id]; ok {
			if sess.snap != snap {
				sess.queue = snap.NewQueue(queueSeed())
				sess.snap = snap
			}
			sess.lastSeen = now
			return id, sess.queue, nil
		}
	}

	fresh, err := newReviewSessionID()
	if err != nil {
		return "", nil, err
	}
	sess := &reviewSession{
		queue:    snap.NewQueue(queueSeed()),
		snap:     snap,
		lastSeen: now,
	}
	r.sessions[fresh] = sess
	return fresh, sess.queue, nil
}

func (r *reviewSessions) pruneLocked(now time.Time) {
	for id, sess := range r.sessions {
		if now.Sub(sess.lastSeen) > reviewSessionTTL {
			delete(r.sessions, id)
		}
	}
}
