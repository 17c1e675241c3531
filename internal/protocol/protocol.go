package protocol

import "encoding/json"

const Version = "1"

// Message types (the "t" discriminator).
const (
	// server -> client
	TypeWelcome  = "welcome"
	TypeSnapshot = "snapshot"

	// client -> server
	TypeInput     = "input"
	TypePickup    = "pickup"
	TypeUseItem   = "useItem"
	TypePlaceTrap = "placeTrap"
	TypeShoot     = "shoot"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	T string `json:"t"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
