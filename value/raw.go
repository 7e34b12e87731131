package value

import (
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Raw is the handle triple every typed wrapper carries, plus the table the
// handle came from. Kind is the kind last confirmed for the handle, or
// host.Unknown when nothing was confirmed.
//
// A Raw never owns engine memory. It is only valid while its Env is alive
// and only on the goroutine driving that Env.
type Raw struct {
	Table  host.Table
	Env    host.Env
	Handle host.Handle
	Kind   host.ValueType
}

// RawAccess is implemented by everything that wraps a Raw.
type RawAccess interface {
	Raw() Raw
}

// Decoder is implemented by types that can read themselves out of an
// engine value. DecodeHandle must not validate; the checked path calls
// ValidateHandle first when the type also implements Validator.
type Decoder interface {
	DecodeHandle(r Raw) error
}

// Validator confirms that a handle has the shape a Decoder expects.
type Validator interface {
	ValidateHandle(r Raw) (Raw, error)
}

// Encoder is implemented by types that produce a fresh engine value.
type Encoder interface {
	EncodeHandle(tab host.Table, env host.Env) (host.Handle, error)
}

// NewRaw queries the handle's kind and returns a Raw carrying it.
func NewRaw(tab host.Table, env host.Env, h host.Handle) (Raw, error) {
	if tab == nil {
		return Raw{}, errors.InvalidArgument(errors.PhaseHost, "nil table")
	}
	assertOwned(tab, env, h)

	t, st := tab.TypeOf(env, h)
	if err := errors.Check(st, "typeof failed"); err != nil {
		return Raw{}, err
	}
	return Raw{Table: tab, Env: env, Handle: h, Kind: t}, nil
}

// RawUnchecked builds a Raw without asking the engine. The caller vouches
// for kind.
func RawUnchecked(tab host.Table, env host.Env, h host.Handle, kind host.ValueType) Raw {
	return Raw{Table: tab, Env: env, Handle: h, Kind: kind}
}

// Raw returns r itself so a bare Raw satisfies RawAccess.
func (r Raw) Raw() Raw { return r }

// IsZero reports whether r refers to nothing.
func (r Raw) IsZero() bool {
	return r.Table == nil || r.Handle == 0
}

// EncodeHandle hands back the wrapped handle. Handles never cross envs.
func (r Raw) EncodeHandle(_ host.Table, env host.Env) (host.Handle, error) {
	if r.IsZero() {
		return 0, errors.InvalidArgument(errors.PhaseEncode, "zero handle")
	}
	if r.Env != env {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidArgument).
			Status(host.InvalidArg).
			Detail("handle belongs to env %d, not %d", r.Env, env).
			Build()
	}
	assertOwned(r.Table, env, r.Handle)
	return r.Handle, nil
}

// with returns a Raw for another handle in the same env.
func (r Raw) with(h host.Handle, kind host.ValueType) Raw {
	return Raw{Table: r.Table, Env: r.Env, Handle: h, Kind: kind}
}

// handleOf resolves a key or argument against r's env.
func (r Raw) handleOf(a RawAccess) (host.Handle, error) {
	if a == nil {
		return 0, errors.InvalidArgument(errors.PhaseHost, "nil handle")
	}
	return a.Raw().EncodeHandle(r.Table, r.Env)
}
