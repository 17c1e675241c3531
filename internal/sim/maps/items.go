package maps

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ItemKind is the closed set of item tags. The wire id is the string form.
type ItemKind uint8

const (
	KindUnknown ItemKind = iota
	KindIntel
	KindKey
	KindTrapKit
	KindDisguise
	KindBomb
	KindSpring
	KindMap
	KindWire
	KindEscape
)

type kindInfo struct {
	id    string
	label string
}

var kindTable = [...]kindInfo{
	KindUnknown:  {"", ""},
	KindIntel:    {"brief", "INTEL"},
	KindKey:      {"key", "KEY"},
	KindTrapKit:  {"trap", "TRAP KIT"},
	KindDisguise: {"paint", "DISGUISE"},
	KindBomb:     {"bomb", "BOMB"},
	KindSpring:   {"spring", "SPRING"},
	KindMap:      {"map", "MAP"},
	KindWire:     {"wire", "WIRE CUTTER"},
	KindEscape:   {"escape", "EXIT DOOR"},
}

// LootTable is the set of kinds a searchable can yield.
var LootTable = []ItemKind{KindBomb, KindTrapKit, KindSpring, KindMap, KindDisguise}

// RadarKinds are the kinds whose location a radar reveal reports.
var RadarKinds = []ItemKind{KindIntel, KindKey, KindTrapKit}

func ParseItemKind(s string) (ItemKind, bool) {
	for k := KindIntel; k <= KindEscape; k++ {
		if kindTable[k].id == s {
			return k, true
		}
	}
	return KindUnknown, false
}

func (k ItemKind) String() string {
	if int(k) < len(kindTable) {
		return kindTable[k].id
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Label is the display label shown to clients.
func (k ItemKind) Label() string {
	if int(k) < len(kindTable) {
		return kindTable[k].label
	}
	return ""
}

func (k ItemKind) Valid() bool { return k > KindUnknown && k <= KindEscape }

func (k ItemKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ItemKind) UnmarshalText(b []byte) error {
	v, ok := ParseItemKind(string(b))
	if !ok {
		return fmt.Errorf("unknown item kind %q", string(b))
	}
	*k = v
	return nil
}

func (k *ItemKind) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if err := k.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	return nil
}
