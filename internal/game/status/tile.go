package status

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// ApplyTile places tile status typ on c for turns turns (0 uses the
// definition's duration). A status the tile's terrain does not accept, an
// unknown or non-tile status, and an out-of-bounds tile are silent no-ops.
func (m *Manager) ApplyTile(c grid.Coord, typ string, turns int, attackerID string) bool {
	if m.grid == nil || !m.grid.InBounds(c) {
		return false
	}
	def, ok := m.reg.Status(typ)
	if !ok || !def.Tile {
		return false
	}
	if !def.AcceptsTerrain(m.grid.Terrain(c).Name) {
		return false
	}
	if turns == 0 {
		turns = def.Turns
	}
	if turns <= 0 {
		return false
	}
	m.grid.SetTileStatus(c, &grid.TileStatus{Type: typ, Turns: turns, AttackerID: attackerID})
	m.bus.Publish(event.TileStatusChanged{Tile: c, Status: typ, Active: true})
	return true
}

// IgniteAndSpread applies flammable tile status typ at origin, then
// propagates it to adjacent tiles whose terrain spreads fire. Only tiles not
// already carrying typ are ignited during propagation, which bounds the walk.
// Returns the number of tiles ignited or refreshed.
func (m *Manager) IgniteAndSpread(origin grid.Coord, typ string, turns int, attackerID string) int {
	def, ok := m.reg.Status(typ)
	if !ok || !def.Flammable {
		return 0
	}
	if !m.ApplyTile(origin, typ, turns, attackerID) {
		return 0
	}
	lit := 1
	stack := []grid.Coord{origin}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range m.grid.Neighbors(c) {
			if !m.grid.Terrain(n).SpreadsFire {
				continue
			}
			if _, burning := m.grid.TileStatus(n, typ); burning {
				continue
			}
			if m.ApplyTile(n, typ, turns, attackerID) {
				lit++
				stack = append(stack, n)
			}
		}
	}
	m.logger.Debug("fire spread", zap.Stringer("origin", origin), zap.Int("tiles", lit))
	return lit
}

// Occupants resolves which unit stands on a tile and who placed a tile status.
type Occupants interface {
	UnitAt(c grid.Coord) *unit.Unit
	UnitByID(id string) *unit.Unit
}

// TickTiles runs one round of tile statuses in row-major order: a living
// occupant takes the status's tick damage attributed to whoever placed it,
// then the status loses a turn and is cleared at zero.
func (m *Manager) TickTiles(occ Occupants) {
	if m.grid == nil {
		return
	}
	for _, c := range m.grid.TilesWithStatus() {
		for _, typ := range m.grid.TileStatusTypes(c) {
			ts, ok := m.grid.TileStatus(c, typ)
			if !ok {
				continue
			}
			if def, ok := m.reg.Status(typ); ok && def.TickDamage > 0 && occ != nil {
				if u := occ.UnitAt(c); u != nil && u.Alive() {
					m.dealTick(u, occ.UnitByID(ts.AttackerID), def.TickDamage, typ)
				}
			}
			ts.Turns--
			if ts.Turns <= 0 {
				m.ClearTile(c, typ)
			}
		}
	}
}

// ClearTile removes tile status typ from c.
func (m *Manager) ClearTile(c grid.Coord, typ string) bool {
	if m.grid == nil {
		return false
	}
	if _, ok := m.grid.TileStatus(c, typ); !ok {
		return false
	}
	m.grid.DeleteTileStatus(c, typ)
	m.bus.Publish(event.TileStatusChanged{Tile: c, Status: typ, Active: false})
	return true
}
