package world

import (
	"testing"
	"time"

	"heist.gg/internal/protocol"
	"heist.gg/internal/sim/maps"
	"heist.gg/internal/sim/tuning"
)

func TestPickup_NearestItemWins(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	place(p, "R2", 255, 150)
	w.rooms["R2"].Items = append(w.rooms["R2"].Items, Item{Kind: maps.KindWire, X: 270, Y: 150})

	if r := w.Pickup(p, t0); r != "" {
		t.Fatalf("pickup rejected: %s", r)
	}
	if len(p.Inventory) != 1 || p.Inventory[0].Kind != maps.KindIntel {
		t.Fatalf("inventory=%+v", p.Inventory)
	}
	for _, it := range w.rooms["R2"].Items {
		if it.Kind == maps.KindIntel {
			t.Fatalf("picked item still on the floor")
		}
	}
}

func TestPickup_TrapKitReseedsElsewhere(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	w.rooms["R1"].Items = append(w.rooms["R1"].Items, Item{Kind: maps.KindTrapKit, X: 100, Y: 100})
	place(p, "R1", 105, 100)

	if r := w.Pickup(p, t0); r != "" {
		t.Fatalf("pickup rejected: %s", r)
	}
	if !p.hasKind(maps.KindTrapKit) {
		t.Fatalf("trap kit not in inventory")
	}
	if len(w.rooms["R1"].Items) != 0 {
		t.Fatalf("trap kit should not respawn in the room it was taken from: %+v", w.rooms["R1"].Items)
	}
	got := w.rooms["R2"].Items[len(w.rooms["R2"].Items)-1]
	if got.Kind != maps.KindTrapKit || got.X != 200 || got.Y != 150 {
		t.Fatalf("expected reseeded kit at R2 (200,150), got %+v", got)
	}
}

func TestPickup_SearchableUsedOnce(t *testing.T) {
	w := newTestWorld(t, func(tu *tuning.Tuning) { tu.LootNothingWeight = 0 })
	p := w.addPlayer("p", nil, t0)
	place(p, "R1", 60, 140)

	if r := w.Pickup(p, t0); r != "" {
		t.Fatalf("search rejected: %s", r)
	}
	if !w.rooms["R1"].Searchables[0].Used {
		t.Fatalf("searchable not marked used")
	}
	if len(p.Inventory) != 1 {
		t.Fatalf("with no empty weight a search must yield loot, got %+v", p.Inventory)
	}
	found := false
	for _, k := range maps.LootTable {
		if p.Inventory[0].Kind == k {
			found = true
		}
	}
	if !found {
		t.Fatalf("loot %v not from the loot table", p.Inventory[0].Kind)
	}
	if r := w.Pickup(p, t0); r != protocol.ReasonNoTarget {
		t.Fatalf("second search should find nothing to do, got %q", r)
	}
}

func TestPickup_SearchCanYieldNothing(t *testing.T) {
	w := newTestWorld(t, func(tu *tuning.Tuning) { tu.LootNothingWeight = 1 << 20 })
	p := w.addPlayer("p", nil, t0)
	place(p, "R1", 60, 140)
	if r := w.Pickup(p, t0); r != "" {
		t.Fatalf("search rejected: %s", r)
	}
	if len(p.Inventory) != 0 || !w.rooms["R1"].Searchables[0].Used {
		t.Fatalf("expected used searchable and empty hands, inv=%+v", p.Inventory)
	}
}

func TestPickup_ManualMayTakeExitAnchor(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	place(p, "EXIT", 160, 100)
	w.StepOnce(t0.Add(tickDt), tickDt)
	if len(w.rooms["EXIT"].Items) != 1 {
		t.Fatalf("auto-pickup must never take the exit anchor")
	}
	if r := w.Pickup(p, t0.Add(tickDt)); r != "" {
		t.Fatalf("manual pickup rejected: %s", r)
	}
	if !p.hasKind(maps.KindEscape) || len(w.rooms["EXIT"].Items) != 0 {
		t.Fatalf("manual pickup should take the anchor")
	}
	if _, ok := w.variant.ExitAnchor(); !ok {
		t.Fatalf("template anchor must survive")
	}
}

func TestUseItem_PlacesTrapAndBomb(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	place(p, "R1", 100, 120)
	p.Inventory = []Item{{Kind: maps.KindBomb}, {Kind: maps.KindTrapKit}}

	if r := w.UseItem(p, 1, t0); r != "" {
		t.Fatalf("trap kit: %s", r)
	}
	if r := w.UseItem(p, 0, t0); r != "" {
		t.Fatalf("bomb: %s", r)
	}
	rs := w.rooms["R1"]
	if len(rs.FloorTraps) != 1 || rs.FloorTraps[0].Owner != "p" || !rs.FloorTraps[0].Armed {
		t.Fatalf("floor traps=%+v", rs.FloorTraps)
	}
	if len(rs.Bombs) != 1 || !rs.Bombs[0].ArmedAt.Equal(t0.Add(w.tun.BombArmDelay())) {
		t.Fatalf("bombs=%+v", rs.Bombs)
	}
	if rs.Bombs[0].Armed(t0) {
		t.Fatalf("bomb must not be armed during its grace period")
	}
	if len(p.Inventory) != 0 {
		t.Fatalf("items not consumed: %+v", p.Inventory)
	}
}

func TestUseItem_TimedEffects(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	p.Inventory = []Item{{Kind: maps.KindDisguise}, {Kind: maps.KindMap}}
	w.UseItem(p, 0, t0)
	w.UseItem(p, 0, t0)
	if !p.DisguisedUntil.Equal(t0.Add(6 * time.Second)) {
		t.Fatalf("disguise until %v", p.DisguisedUntil)
	}
	if !p.RadarUntil.Equal(t0.Add(5 * time.Second)) {
		t.Fatalf("radar until %v", p.RadarUntil)
	}
}

func TestUseItem_SpringNeedsDoorInRange(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	p.Inventory = []Item{{Kind: maps.KindSpring}}

	place(p, "R1", 160, 100)
	if r := w.UseItem(p, 0, t0); r != protocol.ReasonNoTarget {
		t.Fatalf("expected no target, got %q", r)
	}
	if len(p.Inventory) != 1 {
		t.Fatalf("spring must be kept when no door is in range")
	}

	place(p, "R1", 290, 100) // 20px from the east door centre
	if r := w.UseItem(p, 0, t0); r != "" {
		t.Fatalf("spring rejected: %s", r)
	}
	dts := w.rooms["R1"].DoorTraps
	if len(dts) != 1 || dts[0].DoorIndex != 0 || dts[0].Owner != "p" {
		t.Fatalf("door traps=%+v", dts)
	}
}

func TestUseItem_InvalidAndInertSlots(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	p.Inventory = []Item{{Kind: maps.KindWire}, {Kind: maps.ItemKind(200)}}

	cases := []struct {
		which int
		want  string
	}{
		{-1, protocol.ReasonBadSlot},
		{2, protocol.ReasonBadSlot},
		{0, protocol.ReasonNoEffect},
		{1, protocol.ReasonUnknownKind},
	}
	for _, tc := range cases {
		if got := w.UseItem(p, tc.which, t0); got != tc.want {
			t.Fatalf("UseItem(%d)=%q want %q", tc.which, got, tc.want)
		}
	}
	if len(p.Inventory) != 2 {
		t.Fatalf("no-op uses must not consume items")
	}
	if w.rejected[protocol.ReasonBadSlot] != 2 {
		t.Fatalf("rejections not counted: %v", w.rejected)
	}
}

func TestPlaceTrap_FindsKitBySlotKind(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	if r := w.PlaceTrap(p, t0); r != protocol.ReasonBadSlot {
		t.Fatalf("expected bad slot without a kit, got %q", r)
	}
	p.Inventory = []Item{{Kind: maps.KindKey}, {Kind: maps.KindTrapKit}}
	if r := w.PlaceTrap(p, t0); r != "" {
		t.Fatalf("place trap: %s", r)
	}
	if len(p.Inventory) != 1 || p.Inventory[0].Kind != maps.KindKey {
		t.Fatalf("wrong slot consumed: %+v", p.Inventory)
	}
	if len(w.rooms["R1"].FloorTraps) != 1 {
		t.Fatalf("no trap placed")
	}
}

func TestShoot_CooldownAndAim(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)

	if r := w.Shoot(p, true, 0, 2, t0); r != "" {
		t.Fatalf("shoot: %s", r)
	}
	pr := w.rooms["R1"].Projectiles[0]
	if pr.VX != 0 || pr.VY != w.tun.ProjectileSpeed {
		t.Fatalf("projectile velocity (%v,%v)", pr.VX, pr.VY)
	}
	if p.AimX != 0 || p.AimY != 1 {
		t.Fatalf("aim hint should update last aim")
	}
	if r := w.Shoot(p, false, 0, 0, t0.Add(100*time.Millisecond)); r != protocol.ReasonCooldown {
		t.Fatalf("expected cooldown, got %q", r)
	}
	if r := w.Shoot(p, true, 0, 0, t0.Add(500*time.Millisecond)); r != "" {
		t.Fatalf("shoot after cooldown: %s", r)
	}
	if pr := w.rooms["R1"].Projectiles[1]; pr.VY != w.tun.ProjectileSpeed {
		t.Fatalf("zero aim hint should fall back to last aim, got (%v,%v)", pr.VX, pr.VY)
	}

	p.StunnedUntil = t0.Add(2 * time.Second)
	if r := w.Shoot(p, false, 0, 0, t0.Add(time.Second)); r != protocol.ReasonStunned {
		t.Fatalf("expected stunned, got %q", r)
	}
}

func TestShoot_ZeroAimFallsBackToEast(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	p.AimX, p.AimY = 0, 0
	w.Shoot(p, false, 0, 0, t0)
	pr := w.rooms["R1"].Projectiles[0]
	if pr.VX != w.tun.ProjectileSpeed || pr.VY != 0 {
		t.Fatalf("projectile velocity (%v,%v)", pr.VX, pr.VY)
	}
}

func TestApplyIntent_FrozenAndUnknownPlayer(t *testing.T) {
	w := newTestWorld(t, nil)
	p := w.addPlayer("p", nil, t0)
	if r := w.applyIntent(IntentEnvelope{PlayerID: "ghost", Intent: protocol.Intent{Kind: protocol.IntentPickup}}, t0); r != protocol.ReasonNoPlayer {
		t.Fatalf("got %q", r)
	}
	w.startFreeze(p, WinEscape, t0)
	in := protocol.Intent{Kind: protocol.IntentInput, Seq: 5, DX: 1}
	if r := w.applyIntent(IntentEnvelope{PlayerID: "p", Intent: in}, t0); r != protocol.ReasonFrozen {
		t.Fatalf("got %q", r)
	}
	if p.LastSeq != 0 || p.VX != 0 {
		t.Fatalf("frozen intent applied")
	}
}
