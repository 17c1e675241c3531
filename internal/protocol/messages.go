package protocol

// WELCOME (server -> client), sent once per connection.
type WelcomeMsg struct {
	T    string `json:"t"`
	ID   string `json:"id"`
	Tick uint64 `json:"tick"`
}

// SNAPSHOT (server -> client): the recipient's redacted view of the world.
type SnapshotMsg struct {
	T       string `json:"t"`
	Tick    uint64 `json:"tick"`
	You     string `json:"you"`
	MapName string `json:"mapName"`

	Room  string  `json:"room"`
	RoomW float64 `json:"roomW"`
	RoomH float64 `json:"roomH"`

	Doors       []DoorView       `json:"doors"`
	Items       []ItemView       `json:"items"`
	Searchables []SearchableView `json:"searchables"`
	Traps       []TrapView       `json:"traps"`
	Bombs       []BombView       `json:"bombs"`
	Projectiles []ProjectileView `json:"projectiles"`
	Players     []PlayerView     `json:"players"`

	YourInventory []InventoryView `json:"yourInventory"`
	YouScore      int             `json:"youScore"`
	ScoreTarget   int             `json:"scoreTarget"`
	YourHealth    int             `json:"yourHealth"`
	ShotsToKill   int             `json:"shotsToKill"`

	Winner *WinnerView `json:"winner"`

	IntelLocation   *LocationView `json:"intelLocation"`
	KeyLocation     *LocationView `json:"keyLocation"`
	TrapKitLocation *LocationView `json:"trapKitLocation"`
}

type DoorView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type ItemView struct {
	ID    string  `json:"id"` // item kind, e.g. "brief", "key"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

type SearchableView struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
	Used  bool    `json:"used"`
}

// TrapView is only ever sent to the trap's owner.
type TrapView struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"` // "floor" or "door"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Owner string  `json:"owner"`
	Door  *int    `json:"door,omitempty"`
}

type BombView struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Owner string  `json:"owner"`
	Armed bool    `json:"armed"`
}

type ProjectileView struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type PlayerView struct {
	ID              string  `json:"id"`
	ShortID         string  `json:"shortId"`
	Room            string  `json:"room"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Color           string  `json:"color"`
	IsStunned       bool    `json:"isStunned"`
	StunMsRemaining int64   `json:"stunMsRemaining"`
	Score           int     `json:"score"`
}

type InventoryView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type WinnerView struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "escape" or "score"
}

type LocationView struct {
	Room      string `json:"room"`
	CarriedBy string `json:"carriedBy,omitempty"`
}
