package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.unit(id) -> table or nil
//	engine.chance(label, p) -> bool, consuming one roll
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	log := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		emit := fn
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			emit(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", log)

	L.SetField(engine, "unit", L.NewFunction(m.luaUnit))
	L.SetField(engine, "chance", L.NewFunction(func(L *lua.LState) int {
		label := L.CheckString(1)
		p := float64(L.CheckNumber(2))
		L.Push(lua.LBool(m.roller.Chance("lua:"+label, p)))
		return 1
	}))

	L.SetGlobal("engine", engine)
}

func (m *Manager) luaUnit(L *lua.LState) int {
	id := L.CheckString(1)
	if m.GetUnit == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.GetUnit(id)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(info.ID))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "team", lua.LString(info.Team))
	L.SetField(t, "x", lua.LNumber(info.X))
	L.SetField(t, "y", lua.LNumber(info.Y))
	L.SetField(t, "hp", lua.LNumber(info.HP))
	L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(t, "wisp", lua.LNumber(info.Wisp))
	L.SetField(t, "max_wisp", lua.LNumber(info.MaxWisp))
	L.SetField(t, "level", lua.LNumber(info.Level))
	statuses := L.NewTable()
	for _, s := range info.Statuses {
		L.SetField(statuses, s, lua.LTrue)
	}
	L.SetField(t, "statuses", statuses)
	L.Push(t)
	return 1
}
