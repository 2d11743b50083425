package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestPairKeyOrderIndependent(t *testing.T) {
	a := uuid.MustParse("2a9f3c1e-0000-0000-0000-000000000001")
	b := uuid.MustParse("9b8e7d6c-0000-0000-0000-000000000002")

	if PairKey(a, b) != PairKey(b, a) {
		t.Fatalf("PairKey(a,b)=%q PairKey(b,a)=%q, want equal", PairKey(a, b), PairKey(b, a))
	}
	want := a.String() + ":" + b.String()
	if got := PairKey(b, a); got != want {
		t.Fatalf("PairKey = %q, want lexicographically sorted %q", got, want)
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to ConversationStatus
		ok       bool
	}{
		{StatusProposal, StatusProposal, true},
		{StatusProposal, StatusProject, true},
		{StatusProposal, StatusCancelled, true},
		{StatusProposal, StatusCompleted, false},
		{StatusProject, StatusCompleted, true},
		{StatusProject, StatusCancelled, true},
		{StatusProject, StatusProposal, false},
		{StatusCompleted, StatusProject, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusCancelled, StatusProject, false},
		{StatusCancelled, StatusCancelled, true},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}
