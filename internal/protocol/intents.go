package protocol

import (
	"encoding/json"
	"fmt"
)

// IntentKind is the closed set of client intents.
type IntentKind uint8

const (
	IntentInput IntentKind = iota + 1
	IntentPickup
	IntentUseItem
	IntentPlaceTrap
	IntentShoot
)

func (k IntentKind) String() string {
	switch k {
	case IntentInput:
		return TypeInput
	case IntentPickup:
		return TypePickup
	case IntentUseItem:
		return TypeUseItem
	case IntentPlaceTrap:
		return TypePlaceTrap
	case IntentShoot:
		return TypeShoot
	default:
		return fmt.Sprintf("intent(%d)", uint8(k))
	}
}

// Intent is the decoded, shape-validated form of one client message. Only the
// fields relevant to Kind are meaningful.
type Intent struct {
	Kind IntentKind `json:"kind"`

	// input
	Seq uint64  `json:"seq,omitempty"`
	DX  float64 `json:"dx,omitempty"`
	DY  float64 `json:"dy,omitempty"`

	// useItem
	Which int `json:"which,omitempty"`

	// shoot
	HasAim bool    `json:"has_aim,omitempty"`
	AimX   float64 `json:"aim_x,omitempty"`
	AimY   float64 `json:"aim_y,omitempty"`
}

// Wire shapes of the client messages.
type InputMsg struct {
	T   string  `json:"t"`
	Seq uint64  `json:"seq"`
	DX  float64 `json:"dx"`
	DY  float64 `json:"dy"`
}

type UseItemMsg struct {
	T     string `json:"t"`
	Which int    `json:"which"`
}

type ShootMsg struct {
	T    string   `json:"t"`
	AimX *float64 `json:"aimX,omitempty"`
	AimY *float64 `json:"aimY,omitempty"`
}

var intentKinds = map[string]IntentKind{
	TypeInput:     IntentInput,
	TypePickup:    IntentPickup,
	TypeUseItem:   IntentUseItem,
	TypePlaceTrap: IntentPlaceTrap,
	TypeShoot:     IntentShoot,
}

// DecodeIntent validates a raw client frame against the schema for its type and
// converts it into an Intent. Any error means the frame must be dropped.
func (v *Validator) DecodeIntent(b []byte) (Intent, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kind, ok := intentKinds[base.T]
	if !ok {
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownType, base.T)
	}
	if err := v.Validate(base.T, b); err != nil {
		return Intent{}, err
	}

	in := Intent{Kind: kind}
	switch kind {
	case IntentInput:
		var m InputMsg
		if err := json.Unmarshal(b, &m); err != nil {
			return Intent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		in.Seq, in.DX, in.DY = m.Seq, m.DX, m.DY
	case IntentUseItem:
		var m UseItemMsg
		if err := json.Unmarshal(b, &m); err != nil {
			return Intent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		in.Which = m.Which
	case IntentShoot:
		var m ShootMsg
		if err := json.Unmarshal(b, &m); err != nil {
			return Intent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if m.AimX != nil && m.AimY != nil {
			in.HasAim = true
			in.AimX, in.AimY = *m.AimX, *m.AimY
		}
	}
	return in, nil
}
