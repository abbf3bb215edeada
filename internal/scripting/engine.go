package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/room"
)

// DefaultCallTimeout bounds a single think call.
const DefaultCallTimeout = 50 * time.Millisecond

// Engine wraps a gopher-lua VM that drives bot and pet behavior. Rooms
// tick on worker goroutines, so every VM access goes through mu.
type Engine struct {
	mu      sync.Mutex
	vm      *lua.LState
	log     *zap.Logger
	timeout time.Duration
}

// NewEngine creates a Lua engine and loads the scripts under
// scriptsDir/core and scriptsDir/ai.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, timeout: DefaultCallTimeout}
	for _, sub := range []string{"core", "ai"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// SetCallTimeout changes how long a single think call may run.
func (e *Engine) SetCallTimeout(d time.Duration) {
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a think function exists for the behavior name.
func (e *Engine) Has(behavior string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.GetGlobal("think_"+behavior) != lua.LNil
}

// Think calls think_<behavior>(ctx), falling back to think_<kind>(ctx).
// Entities with neither function stay idle.
func (e *Engine) Think(ctx room.BehaviorContext) ([]room.Command, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("think_" + ctx.Behavior)
	if fn == lua.LNil {
		fn = e.vm.GetGlobal("think_" + ctx.Kind.String())
	}
	if fn == lua.LNil {
		return nil, nil
	}

	t := e.vm.NewTable()
	t.RawSetString("room_id", lua.LNumber(ctx.RoomID))
	t.RawSetString("vid", lua.LNumber(ctx.VID))
	t.RawSetString("kind", lua.LString(ctx.Kind.String()))
	t.RawSetString("behavior", lua.LString(ctx.Behavior))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("rot", lua.LNumber(ctx.Rot))
	t.RawSetString("walking", lua.LBool(ctx.Walking))
	t.RawSetString("tick", lua.LNumber(ctx.Tick))
	t.RawSetString("size_x", lua.LNumber(ctx.SizeX))
	t.RawSetString("size_y", lua.LNumber(ctx.SizeY))

	speech := e.vm.NewTable()
	for i, line := range ctx.Speech {
		speech.RawSetInt(i+1, lua.LString(line))
	}
	t.RawSetString("speech", speech)

	cctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.vm.SetContext(cctx)
	defer e.vm.RemoveContext()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return nil, fmt.Errorf("think_%s: %w", ctx.Behavior, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, nil
	}

	var cmds []room.Command
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		cmds = append(cmds, room.Command{
			Op:     lStr(row, "op"),
			X:      lInt(row, "x"),
			Y:      lInt(row, "y"),
			Radius: lInt(row, "radius"),
			Text:   lStr(row, "text"),
		})
	})
	return cmds, nil
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}
