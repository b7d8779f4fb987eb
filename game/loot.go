package game

import (
	"strings"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
)

// Item is the content of a loot tile.
type Item string

const (
	ItemSword  Item = "SWORD"
	ItemShield Item = "SHIELD"
	ItemSpeed  Item = "SPEED"
	ItemWarp   Item = "WARP"
	ItemRenown Item = "RENOWN_CHIP"
	ItemSeal   Item = "SPACETIME_SEAL"
)

const (
	maxLootPerRefresh = 10
	// a refresh always restocks at least the base mix
	minRefreshDrops = 5
)

var (
	// refreshBase is the fixed head of every refresh drop.
	refreshBase = []Item{ItemSword, ItemShield, ItemSpeed, ItemRenown, ItemRenown}
	// refreshExtra is what fills the drop beyond refreshBase. Warp and the
	// Seal never drop.
	refreshExtra = []Item{ItemSword, ItemShield, ItemRenown, ItemSpeed}
)

// buff maps a consumable item to its slot value.
func (it Item) buff() Buff {
	switch it {
	case ItemSword:
		return BuffSword
	case ItemShield:
		return BuffShield
	case ItemSpeed:
		return BuffSpeed
	case ItemWarp:
		return BuffWarp
	}
	return BuffNone
}

// consumable reports whether picking the item replaces the buff slot.
func (it Item) consumable() bool {
	return it.buff() != BuffNone
}

// PaintableItem normalises a host-supplied item name. Legacy aliases are
// accepted; anything else, including Warp and the Seal, becomes a Renown chip.
func PaintableItem(name string) Item {
	switch Item(strings.ToUpper(strings.TrimSpace(name))) {
	case ItemSword:
		return ItemSword
	case ItemShield:
		return ItemShield
	case ItemSpeed, "LIGHTNING":
		return ItemSpeed
	}
	return ItemRenown
}

// LootEvent describes a pickup (or a refused one) on a single tile.
type LootEvent struct {
	Tile     geometry.Coord `json:"tile"`
	TileID   int            `json:"tileId"`
	PlayerID string         `json:"playerId"`
	Name     string         `json:"name"`
	Type     Item           `json:"type"`
	Previous string         `json:"prevBuff,omitempty"`
	VPAward  int            `json:"vpAward,omitempty"`
}

type lootBlocked struct {
	Reason string `json:"reason"`
	Type   Item   `json:"type"`
}

type buffUpdate struct {
	PlayerID string `json:"playerId"`
	Buff     string `json:"buffType"`
	Previous string `json:"prevBuff"`
}

// occupantsByTile groups positioned participants by tile, each group in join order.
func (g *Game) occupantsByTile() map[geometry.Coord][]*Player {
	out := make(map[geometry.Coord][]*Player)
	for _, p := range g.Players() {
		if p.Positioned() {
			out[*p.Pos] = append(out[*p.Pos], p)
		}
	}
	return out
}

// resolveLoot hands every occupied loot tile to its earliest-joined occupant.
func (g *Game) resolveLoot(byTile map[geometry.Coord][]*Player) {
	for _, c := range g.lootTiles() {
		contenders := byTile[c]
		if len(contenders) == 0 {
			continue
		}
		g.pickup(contenders[0], c, g.loot[c])
	}
}

func (g *Game) pickup(p *Player, c geometry.Coord, it Item) {
	if p.Seal && it.consumable() {
		g.sendToPlayer(p, network.EvtLootBlocked, lootBlocked{Reason: "SEAL_LOCK", Type: it})
		g.logf("%s cannot pick up %s while holding the Spacetime Seal.", p.Name, it)
		return
	}

	prev := p.Buff.String()
	ev := LootEvent{
		Tile:     c,
		TileID:   c.Y*g.size + c.X,
		PlayerID: p.ID,
		Name:     p.Name,
		Type:     it,
		Previous: prev,
	}
	switch it {
	case ItemRenown:
		ev.VPAward = g.settings.RenownVP
		g.award(p, g.settings.RenownVP, "Renown Chip")
	case ItemSeal:
		p.takeSeal()
	default:
		p.setBuff(it.buff())
	}
	delete(g.loot, c)

	g.broadcast(network.EvtBuffUpdate, buffUpdate{PlayerID: p.ID, Buff: p.Buff.String(), Previous: prev})
	g.broadcast(network.EvtLootOpen, ev)
	g.broadcast(network.EvtLootPickup, ev)
	if prev != "" && it.consumable() {
		g.logf("%s picked up %s (replaced %s).", p.Name, it, prev)
	} else {
		g.logf("%s picked up %s.", p.Name, it)
	}
}

// dropLoot stocks the safe-zone ring at a refresh. Occupied tiles and tiles
// already holding an item are skipped.
func (g *Game) dropLoot() int {
	want := max(minRefreshDrops, clamp(g.settings.LootPerRefresh, 0, maxLootPerRefresh))
	items := make([]Item, 0, want)
	for i := 0; i < want; i++ {
		if i < len(refreshBase) {
			items = append(items, refreshBase[i])
			continue
		}
		items = append(items, refreshExtra[g.rng.IntN(len(refreshExtra))])
	}

	occ := g.occupied()
	free := make([]geometry.Coord, 0, 16)
	for _, c := range g.cc.Ring() {
		if occ[c] || g.IsHazard(c) {
			continue
		}
		if _, taken := g.loot[c]; taken {
			continue
		}
		free = append(free, c)
	}
	free = geometry.Shuffle(g.rng, free)

	n := min(len(free), len(items))
	for i := 0; i < n; i++ {
		g.loot[free[i]] = items[i]
	}
	if n > 0 {
		g.logf("Refresh: %d item(s) dropped on the Cornucore ring.", n)
	}
	return n
}
