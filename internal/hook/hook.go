// Package hook runs an optional Lua script on every change of the active
// variant set.
//
// The script defines a global on_change function. It receives an array of
// {name=, progress=} tables, in the engine's order, and may return a string
// for the status line:
//
//	function on_change(variants)
//	  local top = variants[1]
//	  if top == nil then return "" end
//	  return string.format("%s %d%%", top.name, top.progress * 100)
//	end
//
// Only the base, table, string and math libraries are available. print
// writes to the bandswap log.
package hook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/logging"
)

// HandlerName is the global the script must define.
const HandlerName = "on_change"

// DefaultTimeout bounds a single on_change call.
const DefaultTimeout = 50 * time.Millisecond

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("hook is closed")

	// ErrNoHandler means the script does not define on_change.
	ErrNoHandler = errors.New("on_change is not defined")

	// ErrTimeout means on_change ran past its deadline.
	ErrTimeout = errors.New("hook execution timeout")
)

// Hook is a loaded change script. Calls are serialized.
type Hook struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	logger  *logging.Logger
	closed  bool
}

// Option configures a Hook.
type Option func(*Hook)

// WithTimeout bounds each on_change call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Hook) {
		h.timeout = d
	}
}

// WithLogger routes the script's print output.
func WithLogger(l *logging.Logger) Option {
	return func(h *Hook) {
		h.logger = l
	}
}

func newHook(opts ...Option) *Hook {
	h := &Hook{
		timeout: DefaultTimeout,
		logger:  logging.Null(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(h.L)
	lua.OpenTable(h.L)
	lua.OpenString(h.L)
	lua.OpenMath(h.L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		h.L.SetGlobal(name, lua.LNil)
	}
	h.L.SetGlobal("print", h.L.NewFunction(h.luaPrint))
	return h
}

// Load runs the script at path and checks that it defines on_change.
func Load(path string, opts ...Option) (*Hook, error) {
	h := newHook(opts...)
	if err := h.run(func() error { return h.L.DoFile(path) }); err != nil {
		h.Close()
		return nil, fmt.Errorf("loading hook %s: %w", path, err)
	}
	if err := h.checkHandler(); err != nil {
		h.Close()
		return nil, fmt.Errorf("hook %s: %w", path, err)
	}
	return h, nil
}

// LoadString is Load for inline source.
func LoadString(src string, opts ...Option) (*Hook, error) {
	h := newHook(opts...)
	if err := h.run(func() error { return h.L.DoString(src) }); err != nil {
		h.Close()
		return nil, fmt.Errorf("loading hook: %w", err)
	}
	if err := h.checkHandler(); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Hook) checkHandler() error {
	if h.L.GetGlobal(HandlerName).Type() != lua.LTFunction {
		return ErrNoHandler
	}
	return nil
}

// OnChange calls on_change with the active list. A non-string return
// value yields "".
func (h *Hook) OnChange(active []core.ActiveVariant) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", ErrClosed
	}

	arg := h.L.NewTable()
	for i, a := range active {
		rec := h.L.NewTable()
		rec.RawSetString("name", lua.LString(a.Name))
		rec.RawSetString("progress", lua.LNumber(a.Progress))
		arg.RawSetInt(i+1, rec)
	}

	var ctx context.Context
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		h.L.SetContext(ctx)
		defer h.L.RemoveContext()
	}

	top := h.L.GetTop()
	err := h.run(func() error {
		return h.L.CallByParam(lua.P{
			Fn:      h.L.GetGlobal(HandlerName),
			NRet:    1,
			Protect: true,
		}, arg)
	})
	if err != nil {
		h.L.SetTop(top)
		if ctx != nil && ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}

	ret := h.L.Get(-1)
	h.L.SetTop(top)
	if s, ok := ret.(lua.LString); ok {
		return string(s), nil
	}
	return "", nil
}

// Close releases the Lua state. Safe to call more than once.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.L.Close()
	return nil
}

func (h *Hook) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (h *Hook) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	h.logger.Info("%s", strings.Join(parts, "\t"))
	return 0
}
