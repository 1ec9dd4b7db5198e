package httpapi

import (
	"testing"

	"oldprague.photos/fotoatlas/internal/grouping"
)

func TestReviewSessionsReuseAndRebuild(t *testing.T) {
	t.Parallel()

	snapA := grouping.Derive(testRecords(), nil, nil, nil)
	snapB := grouping.Derive(testRecords(), nil, nil, nil)
	sessions := newReviewSessions()

	id, queueA, err := sessions.acquire("", snapA)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if id == "" {
		t.Fatalf("no session id issued")
	}

	sameID, sameQueue, err := sessions.acquire(id, snapA)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if sameID != id || sameQueue != queueA {
		t.Fatalf("existing session not reused")
	}

	// A new snapshot invalidates the queue but keeps the session id.
	rebuiltID, rebuiltQueue, err := sessions.acquire(id, snapB)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if rebuiltID != id {
		t.Fatalf("session id changed on snapshot refresh")
	}
	if rebuiltQueue == queueA {
		t.Fatalf("queue not rebuilt for the new snapshot")
	}
}

func TestReviewSessionsUnknownIDStartsFresh(t *testing.T) {
	t.Parallel()

	snap := grouping.Derive(testRecords(), nil, nil, nil)
	sessions := newReviewSessions()

	id, _, err := sessions.acquire("stale-or-forged", snap)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if id == "stale-or-forged" {
		t.Fatalf("unknown session id was honored")
	}
}
