package maps

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoVariants  = errors.New("maps: no variants")
	ErrUnknownRoom = errors.New("maps: unknown room")
)

//go:embed default_maps.yaml
var defaultMapsYAML []byte

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Door is an axis-aligned rectangle that moves a player into TargetRoom.
type Door struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	W          float64 `yaml:"w"`
	H          float64 `yaml:"h"`
	TargetRoom string  `yaml:"target_room"`
	TargetX    float64 `yaml:"target_x"`
	TargetY    float64 `yaml:"target_y"`
}

// Contains reports whether (x,y) lies strictly inside the door rectangle.
func (d Door) Contains(x, y float64) bool {
	return x > d.X && x < d.X+d.W && y > d.Y && y < d.Y+d.H
}

func (d Door) Center() Point { return Point{X: d.X + d.W/2, Y: d.Y + d.H/2} }

func (d Door) Target() Point { return Point{X: d.TargetX, Y: d.TargetY} }

type ItemSpawn struct {
	Kind ItemKind `yaml:"kind"`
	X    float64  `yaml:"x"`
	Y    float64  `yaml:"y"`
}

type SearchableSpawn struct {
	ID    string  `yaml:"id"`
	Label string  `yaml:"label"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

type RoomTemplate struct {
	W           float64           `yaml:"w"`
	H           float64           `yaml:"h"`
	Doors       []Door            `yaml:"doors"`
	Items       []ItemSpawn       `yaml:"items"`
	Searchables []SearchableSpawn `yaml:"searchables"`
}

type SpawnPoint struct {
	Room string  `yaml:"room"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// MapVariant is an immutable room graph.
type MapVariant struct {
	Name         string                   `yaml:"name"`
	ExitRoom     string                   `yaml:"exit_room"`
	Rooms        map[string]*RoomTemplate `yaml:"rooms"`
	Spawns       []SpawnPoint             `yaml:"spawns"`
	TrapRespawns map[string][]Point       `yaml:"trap_respawns"`

	roomNames     []string
	trapRoomNames []string
}

// RoomNames returns the room names in sorted order.
func (v *MapVariant) RoomNames() []string { return v.roomNames }

// TrapRespawnRooms returns the rooms with trap-kit respawn spots, sorted.
func (v *MapVariant) TrapRespawnRooms() []string { return v.trapRoomNames }

func (v *MapVariant) Room(name string) *RoomTemplate { return v.Rooms[name] }

// ExitAnchor is the position of the escape item in the exit room's template.
func (v *MapVariant) ExitAnchor() (Point, bool) {
	r := v.Rooms[v.ExitRoom]
	if r == nil {
		return Point{}, false
	}
	for _, it := range r.Items {
		if it.Kind == KindEscape {
			return Point{X: it.X, Y: it.Y}, true
		}
	}
	return Point{}, false
}

func (v *MapVariant) validate() error {
	if v.Name == "" {
		return errors.New("variant without name")
	}
	if len(v.Rooms) == 0 {
		return fmt.Errorf("variant %q: no rooms", v.Name)
	}
	v.roomNames = v.roomNames[:0]
	for name, r := range v.Rooms {
		if r == nil || r.W <= 0 || r.H <= 0 {
			return fmt.Errorf("variant %q: room %s: non-positive size", v.Name, name)
		}
		for i, d := range r.Doors {
			if _, ok := v.Rooms[d.TargetRoom]; !ok {
				return fmt.Errorf("variant %q: room %s door %d -> %s: %w", v.Name, name, i, d.TargetRoom, ErrUnknownRoom)
			}
		}
		v.roomNames = append(v.roomNames, name)
	}
	sort.Strings(v.roomNames)
	if _, ok := v.Rooms[v.ExitRoom]; !ok {
		return fmt.Errorf("variant %q: exit room %s: %w", v.Name, v.ExitRoom, ErrUnknownRoom)
	}
	for i, sp := range v.Spawns {
		if _, ok := v.Rooms[sp.Room]; !ok {
			return fmt.Errorf("variant %q: spawn %d in %s: %w", v.Name, i, sp.Room, ErrUnknownRoom)
		}
	}
	v.trapRoomNames = v.trapRoomNames[:0]
	for name := range v.TrapRespawns {
		if _, ok := v.Rooms[name]; !ok {
			return fmt.Errorf("variant %q: trap respawn room %s: %w", v.Name, name, ErrUnknownRoom)
		}
		v.trapRoomNames = append(v.trapRoomNames, name)
	}
	sort.Strings(v.trapRoomNames)
	return nil
}

type file struct {
	Variants []*MapVariant `yaml:"variants"`
}

// Registry is the read-only set of map variants.
type Registry struct {
	variants []*MapVariant
	byName   map[string]*MapVariant
	digest   string
}

// Default returns the registry built from the embedded variant set.
func Default() (*Registry, error) {
	return Parse(defaultMapsYAML)
}

// Load reads a variant file. An empty path selects the embedded defaults.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

func Parse(raw []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("maps yaml: %w", err)
	}
	reg, err := NewRegistry(f.Variants)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	reg.digest = hex.EncodeToString(sum[:])
	return reg, nil
}

func NewRegistry(variants []*MapVariant) (*Registry, error) {
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	r := &Registry{byName: make(map[string]*MapVariant, len(variants))}
	for _, v := range variants {
		if v == nil {
			continue
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[v.Name]; dup {
			return nil, fmt.Errorf("duplicate variant %q", v.Name)
		}
		r.byName[v.Name] = v
		r.variants = append(r.variants, v)
	}
	if len(r.variants) == 0 {
		return nil, ErrNoVariants
	}
	return r, nil
}

func (r *Registry) Len() int { return len(r.variants) }

// Digest is the sha256 of the source YAML, empty for programmatic registries.
func (r *Registry) Digest() string { return r.digest }

func (r *Registry) Get(name string) (*MapVariant, bool) {
	v, ok := r.byName[name]
	return v, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v.Name)
	}
	return out
}

// Choose picks a variant uniformly, excluding previous when another exists.
func (r *Registry) Choose(rng *rand.Rand, previous string) *MapVariant {
	pool := r.variants
	if previous != "" && len(r.variants) > 1 {
		pool = make([]*MapVariant, 0, len(r.variants)-1)
		for _, v := range r.variants {
			if v.Name != previous {
				pool = append(pool, v)
			}
		}
		if len(pool) == 0 {
			pool = r.variants
		}
	}
	return pool[rng.Intn(len(pool))]
}
