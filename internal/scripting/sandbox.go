// Package scripting provides a sandboxed GopherLua execution environment for
// content hooks: status tick behaviour and passive conditions. It has no
// dependency on the combat packages; unit lookups are injected via Manager
// callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one hook call
// may execute when no override is configured.
const DefaultInstructionLimit = 100_000

// safeLibs are the only standard libraries a hook can see.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// strippedGlobals are base-library functions that reach outside the VM or
// let a script swap its own environment.
var strippedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "getfenv", "setfenv", "newproxy", "print",
}

// opBudget cancels itself once the VM has polled Done more than its
// allowance. GopherLua polls once per opcode, so the allowance is an opcode
// count and a runaway hook stops at the same point on every run.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// limitInstructions gives L a fresh budget of limit opcodes, or
// DefaultInstructionLimit when limit is not positive. The returned function
// releases the budget and must be called once the hook returns.
func limitInstructions(L *lua.LState, limit int) context.CancelFunc {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	L.SetContext(b)
	return cancel
}

// NewSandboxedState returns a Lua state with only safeLibs opened, every
// strippedGlobals entry set to nil and an initial opcode budget of instLimit.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	// The load budget is released by the first hook call replacing it.
	_ = limitInstructions(L, instLimit)
	return L
}
