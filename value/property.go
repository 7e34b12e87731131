package value

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/finalizer"
	"github.com/wippyai/jsbind/host"
)

// Property describes one property for DefineProperties. Either Name or Key
// identifies it. Exactly one of Value, the Getter/Setter pair, or Method
// must be set.
//
// Closure is native state that lives as long as the object the property
// is defined on. It is released once, when the engine collects the object.
type Property struct {
	Key        RawAccess
	Value      any
	Getter     Callback
	Setter     Callback
	Method     Callback
	Closure    finalizer.Closure
	Name       string
	Attributes host.PropertyAttributes
}

func (p Property) label() string {
	if p.Name != "" {
		return p.Name
	}
	return "<key>"
}

// descriptor lowers p to its raw form inside r's env.
func (p Property) descriptor(r Raw) (host.PropertyDescriptor, error) {
	d := host.PropertyDescriptor{
		Name:       p.Name,
		Attributes: p.Attributes,
	}

	switch {
	case p.Name == "" && p.Key == nil:
		return d, errors.InvalidArgument(errors.PhaseEncode, "property has neither name nor key")
	case p.Name == "":
		k, err := r.handleOf(p.Key)
		if err != nil {
			return d, err
		}
		d.Key = k
	}

	kinds := 0
	if p.Value != nil {
		kinds++
	}
	if p.Getter != nil || p.Setter != nil {
		kinds++
	}
	if p.Method != nil {
		kinds++
	}
	if kinds != 1 {
		return d, errors.InvalidArgument(errors.PhaseEncode,
			"property '%s' must set exactly one of value, getter/setter or method", p.label())
	}

	switch {
	case p.Value != nil:
		h, err := Encode(r.Table, r.Env, p.Value)
		if err != nil {
			return d, errors.AnnotateProperty(err, p.label())
		}
		d.Value = h
	case p.Method != nil:
		d.Method = trampoline(r.Table, p.Method)
	default:
		if p.Getter != nil {
			d.Getter = trampoline(r.Table, p.Getter)
		}
		if p.Setter != nil {
			d.Setter = trampoline(r.Table, p.Setter)
		}
	}
	return d, nil
}

// DefineProperties defines props on the object in one engine call.
//
// Closures carried by the batch are handed to the finalizer registry and
// attached to the object before the properties are defined. If attaching
// fails the closures are dropped from the registry unreleased and the
// caller keeps them. If defining fails after attaching, the closures stay
// with the object and are released when it is collected.
func (o ObjectValue[K]) DefineProperties(props ...Property) error {
	descs := make([]host.PropertyDescriptor, 0, len(props))
	var closures []finalizer.Closure

	for _, p := range props {
		d, err := p.descriptor(o.raw)
		if err != nil {
			return err
		}
		descs = append(descs, d)
		if p.Closure != nil {
			closures = append(closures, p.Closure)
		}
	}

	if len(closures) > 0 {
		if err := o.attach(closures); err != nil {
			return err
		}
	}

	return errors.Check(o.raw.Table.DefineProperties(o.raw.Env, o.raw.Handle, descs), "define properties failed")
}

func (o ObjectValue[K]) attach(closures []finalizer.Closure) error {
	if have := o.raw.Table.Version(); have < host.FeatureFinalizers {
		return errors.Unsupported("AddFinalizer", host.FeatureFinalizers, have)
	}

	reg := Registry()
	data, hint, err := reg.Register(closures)
	if err != nil {
		return errors.Wrap(errors.PhaseFinalize, errors.KindGenericFailure, err, "register closures")
	}

	st := o.raw.Table.AddFinalizer(o.raw.Env, o.raw.Handle, data, reg.Finalize, hint)
	if err := errors.Check(st, "add finalizer failed"); err != nil {
		reg.Abandon(data, hint)
		Logger().Warn("closures abandoned",
			zap.Int("count", len(closures)),
			zap.Stringer("status", st))
		return err
	}

	Logger().Debug("closures attached",
		zap.Uint64("env", uint64(o.raw.Env)),
		zap.Uint64("object", uint64(o.raw.Handle)),
		zap.Int("count", len(closures)))
	return nil
}
