package protocol

import "errors"

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Rejection reasons. These never leave the server: they label dropped intents in
// logs, events and metrics.
const (
	// Boundary.
	ReasonMalformed   = "R_MALFORMED"
	ReasonUnknownType = "R_UNKNOWN_TYPE"
	ReasonRateLimit   = "R_RATE_LIMIT"

	// Resolver.
	ReasonStaleSeq    = "R_STALE_SEQ"
	ReasonStunned     = "R_STUNNED"
	ReasonFrozen      = "R_FROZEN"
	ReasonBadSlot     = "R_BAD_SLOT"
	ReasonNoTarget    = "R_NO_TARGET"
	ReasonCooldown    = "R_COOLDOWN"
	ReasonUnknownKind = "R_UNKNOWN_KIND"
	ReasonNoEffect    = "R_NO_EFFECT"
	ReasonNoPlayer    = "R_NO_PLAYER"
)

var knownReasons = map[string]struct{}{
	ReasonMalformed:   {},
	ReasonUnknownType: {},
	ReasonRateLimit:   {},
	ReasonStaleSeq:    {},
	ReasonStunned:     {},
	ReasonFrozen:      {},
	ReasonBadSlot:     {},
	ReasonNoTarget:    {},
	ReasonCooldown:    {},
	ReasonUnknownKind: {},
	ReasonNoEffect:    {},
	ReasonNoPlayer:    {},
}

func IsKnownReason(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownReasons[code]
	return ok
}
