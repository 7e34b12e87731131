package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/engine/internal/memory"
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

const (
	frameSize  = 32
	frameCount = 128
)

// Config holds configuration for table creation
type Config struct {
	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the wazero default. Only used by Load.
	MemoryLimitPages uint32

	// ModuleName is the instance name of the guest. Default "jsengine".
	ModuleName string

	// HostModuleName is the module the guest imports callbacks from.
	// Default "jsbind".
	HostModuleName string

	// Version overrides the feature level reported by the guest.
	Version uint32
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.ModuleName == "" {
		out.ModuleName = "jsengine"
	}
	if out.HostModuleName == "" {
		out.HostModuleName = "jsbind"
	}
	return out
}

// Table implements host.Table over a WebAssembly guest.
type Table struct {
	ctx   context.Context
	rt    wazero.Runtime
	hostM api.Module
	guest api.Module
	mem   *memory.Wrapper
	alloc *memory.Allocator
	cfg   Config

	fns     map[string]api.Function
	version uint32

	scratch uint32
	depth   uint32

	mu         sync.Mutex
	callbacks  map[uint32]host.Callback
	finalizers map[uint32]host.Finalize
	nextID     uint32

	ownsRuntime bool
	closed      bool
}

var _ host.Table = (*Table)(nil)

// Load compiles and instantiates an engine module in a fresh wazero runtime
// with WASI preview1 available, and binds a table to it. Close releases the
// runtime.
func Load(ctx context.Context, wasmBytes []byte, cfg *Config) (*Table, error) {
	c := cfg.withDefaults()

	runtimeCfg := wazero.NewRuntimeConfig()
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, errors.Load("instantiate WASI", err)
	}

	t, err := NewTable(ctx, rt, &c)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	t.ownsRuntime = true

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Load("compile engine module", err)
	}

	guest, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(c.ModuleName).
		WithStartFunctions("_initialize"))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Load("instantiate engine module", err)
	}

	if err := t.Bind(guest); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return t, nil
}

// NewTable registers the callback host module on rt and returns an unbound
// table. Instantiate the guest afterwards and hand it to Bind.
func NewTable(ctx context.Context, rt wazero.Runtime, cfg *Config) (*Table, error) {
	t := &Table{
		ctx:        ctx,
		rt:         rt,
		cfg:        cfg.withDefaults(),
		fns:        make(map[string]api.Function),
		callbacks:  make(map[uint32]host.Callback),
		finalizers: make(map[uint32]host.Finalize),
	}

	mod, err := rt.NewHostModuleBuilder(t.cfg.HostModuleName).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, env, cb, info uint32) uint32 {
			return t.dispatch(env, cb, info)
		}).
		Export("call_function").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, env, fin uint32, data, hint uint64) {
			t.finalize(env, fin, data, hint)
		}).
		Export("finalize").
		Instantiate(ctx)
	if err != nil {
		return nil, errors.Load("instantiate host module "+t.cfg.HostModuleName, err)
	}
	t.hostM = mod
	return t, nil
}

// Bind attaches the instantiated guest. Guests that import their memory
// from an "env" module rather than exporting it are resolved through the
// runtime.
func (t *Table) Bind(guest api.Module) error {
	mem := guest.Memory()
	if mem == nil {
		if env := t.rt.Module("env"); env != nil {
			mem = env.ExportedMemory("memory")
		}
	}

	var missing []string
	if mem == nil {
		missing = append(missing, "memory")
	}
	malloc := guest.ExportedFunction("malloc")
	if malloc == nil {
		missing = append(missing, "malloc")
	}
	free := guest.ExportedFunction("free")
	if free == nil {
		missing = append(missing, "free")
	}
	if len(missing) > 0 {
		return &errors.MissingExportsError{Module: guest.Name(), Exports: missing}
	}

	t.guest = guest
	t.mem = memory.WrapMemory(mem)
	t.alloc = memory.WrapAllocator(t.ctx, malloc, free)

	scratch, err := t.alloc.Alloc(frameSize * frameCount)
	if err != nil {
		return errors.Load("allocate scratch frames", err)
	}
	t.scratch = scratch

	t.version = t.cfg.Version
	if t.version == 0 {
		t.version = 1
		if v, st := t.u32Out("napi_get_version", 0); st == host.OK {
			t.version = v
		}
	}

	Logger().Debug("engine bound",
		zap.String("module", guest.Name()),
		zap.Uint32("version", t.version))
	return nil
}

// Close releases the guest and, for tables created with Load, the runtime.
// Finalizers that never ran are dropped.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var err error
	if t.ownsRuntime {
		err = t.rt.Close(t.ctx)
	} else {
		if t.guest != nil {
			err = multierr.Append(err, t.guest.Close(t.ctx))
		}
		if t.hostM != nil {
			err = multierr.Append(err, t.hostM.Close(t.ctx))
		}
	}

	t.mu.Lock()
	if n := len(t.finalizers); n > 0 {
		Logger().Debug("dropping finalizers that never ran", zap.Int("count", n))
	}
	t.callbacks = nil
	t.finalizers = nil
	t.mu.Unlock()
	return err
}

// Version implements host.Table.
func (t *Table) Version() uint32 { return t.version }

func (t *Table) export(name string) api.Function {
	if fn, ok := t.fns[name]; ok {
		return fn
	}
	fn := t.guest.ExportedFunction(name)
	if fn == nil {
		debugf("guest lacks export %s", name)
	}
	t.fns[name] = fn
	return fn
}

// invoke calls a table export and decodes its status.
func (t *Table) invoke(name string, params ...uint64) host.Status {
	if t.closed || t.guest == nil {
		return host.Closing
	}
	fn := t.export(name)
	if fn == nil {
		return host.GenericFailure
	}
	res, err := fn.Call(t.ctx, params...)
	if err != nil {
		Logger().Warn("guest call failed",
			zap.String("export", name),
			zap.Error(err))
		return host.GenericFailure
	}
	if len(res) == 0 {
		return host.GenericFailure
	}
	return host.Status(api.DecodeI32(res[0]))
}

// withFrame hands fn a scratch frame for out parameters. Frames nest with
// reentrant callbacks.
func (t *Table) withFrame(fn func(out uint32) host.Status) host.Status {
	if t.depth >= frameCount {
		Logger().Warn("scratch frames exhausted", zap.Uint32("depth", t.depth))
		return host.GenericFailure
	}
	out := t.scratch + t.depth*frameSize
	t.depth++
	defer func() { t.depth-- }()
	return fn(out)
}

func (t *Table) fault(what string, err error) host.Status {
	Logger().Warn("guest memory access failed",
		zap.String("op", what),
		zap.Error(err))
	return host.GenericFailure
}

func (t *Table) u32Out(name string, params ...uint64) (uint32, host.Status) {
	var v uint32
	st := t.withFrame(func(out uint32) host.Status {
		if st := t.invoke(name, append(params, uint64(out))...); st != host.OK {
			return st
		}
		var err error
		if v, err = t.mem.ReadU32(out); err != nil {
			return t.fault(name, err)
		}
		return host.OK
	})
	return v, st
}

func (t *Table) handleOut(name string, params ...uint64) (host.Handle, host.Status) {
	v, st := t.u32Out(name, params...)
	return host.Handle(v), st
}

func (t *Table) boolOut(name string, params ...uint64) (bool, host.Status) {
	v, st := t.u32Out(name, params...)
	return v != 0, st
}

func (t *Table) u64Out(name string, params ...uint64) (uint64, host.Status) {
	var v uint64
	st := t.withFrame(func(out uint32) host.Status {
		if st := t.invoke(name, append(params, uint64(out))...); st != host.OK {
			return st
		}
		var err error
		if v, err = t.mem.ReadU64(out); err != nil {
			return t.fault(name, err)
		}
		return host.OK
	})
	return v, st
}

func (t *Table) f64Out(name string, params ...uint64) (float64, host.Status) {
	var v float64
	st := t.withFrame(func(out uint32) host.Status {
		if st := t.invoke(name, append(params, uint64(out))...); st != host.OK {
			return st
		}
		var err error
		if v, err = t.mem.ReadF64(out); err != nil {
			return t.fault(name, err)
		}
		return host.OK
	})
	return v, st
}

// withBytes copies data into a guest allocation for the duration of fn.
func (t *Table) withBytes(what string, data []byte, fn func(ptr uint32) host.Status) host.Status {
	if t.closed || t.alloc == nil {
		return host.Closing
	}
	if len(data) == 0 {
		return fn(0)
	}
	ptr, err := t.alloc.Alloc(uint32(len(data)))
	if err != nil {
		return t.fault(what, err)
	}
	defer t.release(ptr)
	if err := t.mem.Write(ptr, data); err != nil {
		return t.fault(what, err)
	}
	return fn(ptr)
}

func (t *Table) withString(what, s string, fn func(ptr, n uint32) host.Status) host.Status {
	return t.withBytes(what, []byte(s), func(ptr uint32) host.Status {
		return fn(ptr, uint32(len(s)))
	})
}

func (t *Table) withHandles(what string, hs []host.Handle, fn func(ptr, n uint32) host.Status) host.Status {
	buf := make([]byte, 4*len(hs))
	for i, h := range hs {
		putU32(buf[4*i:], uint32(h))
	}
	return t.withBytes(what, buf, func(ptr uint32) host.Status {
		return fn(ptr, uint32(len(hs)))
	})
}

func (t *Table) release(ptr uint32) {
	if err := t.alloc.Release(ptr); err != nil {
		Logger().Warn("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	putU32(b, uint32(v))
	putU32(b[4:], uint32(v>>32))
}

// envArg and handleArg narrow to the guest's i32 width.
func envArg(env host.Env) uint64 { return uint64(uint32(env)) }
func handleArg(v host.Handle) uint64 { return uint64(uint32(v)) }

func boolArg(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
