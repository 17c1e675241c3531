package protocol

import "testing"

func TestIsKnownReason(t *testing.T) {
	cases := []string{
		"",
		ReasonMalformed,
		ReasonUnknownType,
		ReasonRateLimit,
		ReasonStaleSeq,
		ReasonStunned,
		ReasonFrozen,
		ReasonBadSlot,
		ReasonNoTarget,
		ReasonCooldown,
		ReasonUnknownKind,
		ReasonNoEffect,
		ReasonNoPlayer,
	}
	for _, c := range cases {
		if !IsKnownReason(c) {
			t.Fatalf("expected known reason: %q", c)
		}
	}
	if IsKnownReason("R_NOT_DEFINED") {
		t.Fatalf("expected unknown reason rejected")
	}
}
