package memhost

import (
	"github.com/wippyai/jsbind/host"
)

// target resolves obj and key for a keyed property operation.
func (e *Engine) target(env host.Env, obj, key host.Handle) (*envState, *object, propKey, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return nil, nil, propKey{}, st
	}
	o, st := s.getObject(obj)
	if st != host.OK {
		return nil, nil, propKey{}, st
	}
	kv, st := s.get(key)
	if st != host.OK {
		return nil, nil, propKey{}, st
	}
	k, st := s.keyOf(kv)
	return s, o, k, st
}

func (e *Engine) named(env host.Env, obj host.Handle) (*envState, *object, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return nil, nil, st
	}
	o, st := s.getObject(obj)
	return s, o, st
}

func (e *Engine) SetProperty(env host.Env, obj, key, v host.Handle) host.Status {
	s, o, k, st := e.target(env, obj, key)
	if st != host.OK {
		return st
	}
	val, st := s.get(v)
	if st != host.OK {
		return st
	}
	return s.setProp(o, k, val)
}

func (e *Engine) GetProperty(env host.Env, obj, key host.Handle) (host.Handle, host.Status) {
	s, o, k, st := e.target(env, obj, key)
	if st != host.OK {
		return 0, st
	}
	v, st := s.getProp(o, objectValue(o), k)
	if st != host.OK {
		return 0, st
	}
	return s.push(v), host.OK
}

func (e *Engine) HasProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	s, o, k, st := e.target(env, obj, key)
	if st != host.OK {
		return false, st
	}
	return s.hasProp(o, k), host.OK
}

// HasOwnProperty only accepts string and symbol keys.
func (e *Engine) HasOwnProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	s, o, k, st := e.target(env, obj, key)
	if st != host.OK {
		return false, st
	}
	if kv, _ := s.get(key); kv.kind != host.String && kv.kind != host.Symbol {
		return false, host.NameExpected
	}
	return s.hasOwn(o, k), host.OK
}

func (e *Engine) DeleteProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	s, o, k, st := e.target(env, obj, key)
	if st != host.OK {
		return false, st
	}
	return s.deleteProp(o, k), host.OK
}

func (e *Engine) SetNamedProperty(env host.Env, obj host.Handle, name string, v host.Handle) host.Status {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return st
	}
	val, st := s.get(v)
	if st != host.OK {
		return st
	}
	return s.setProp(o, propKey{name: name}, val)
}

func (e *Engine) GetNamedProperty(env host.Env, obj host.Handle, name string) (host.Handle, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return 0, st
	}
	v, st := s.getProp(o, objectValue(o), propKey{name: name})
	if st != host.OK {
		return 0, st
	}
	return s.push(v), host.OK
}

func (e *Engine) HasNamedProperty(env host.Env, obj host.Handle, name string) (bool, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return false, st
	}
	return s.hasProp(o, propKey{name: name}), host.OK
}

// GetPropertyNames lists enumerable string keys, own and inherited, as
// strings.
func (e *Engine) GetPropertyNames(env host.Env, obj host.Handle) (host.Handle, host.Status) {
	return e.keys(env, obj, host.KeyIncludePrototypes, host.KeyEnumerable|host.KeySkipSymbols, host.KeyNumbersToStrings)
}

func (e *Engine) GetAllPropertyNames(env host.Env, obj host.Handle, mode host.KeyCollectionMode, filter host.KeyFilter, conv host.KeyConversion) (host.Handle, host.Status) {
	if _, st := e.at(env, host.FeatureKeyCollection); st != host.OK {
		return 0, st
	}
	switch {
	case mode != host.KeyIncludePrototypes && mode != host.KeyOwnOnly:
		return 0, host.InvalidArg
	case conv != host.KeyKeepNumbers && conv != host.KeyNumbersToStrings:
		return 0, host.InvalidArg
	}
	return e.keys(env, obj, mode, filter, conv)
}

func (e *Engine) keys(env host.Env, obj host.Handle, mode host.KeyCollectionMode, filter host.KeyFilter, conv host.KeyConversion) (host.Handle, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return 0, st
	}
	return s.push(objectValue(s.newArrayOf(s.collectKeys(o, mode, filter, conv)))), host.OK
}

// GetPrototype reports null for objects without a prototype.
func (e *Engine) GetPrototype(env host.Env, obj host.Handle) (host.Handle, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return 0, st
	}
	if o.proto == nil {
		return s.push(nullValue), host.OK
	}
	return s.push(objectValue(o.proto)), host.OK
}

func (e *Engine) SetElement(env host.Env, obj host.Handle, index uint32, v host.Handle) host.Status {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return st
	}
	val, st := s.get(v)
	if st != host.OK {
		return st
	}
	return s.setIndex(o, index, val)
}

func (e *Engine) GetElement(env host.Env, obj host.Handle, index uint32) (host.Handle, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return 0, st
	}
	v, st := s.getProp(o, objectValue(o), indexKey(index))
	if st != host.OK {
		return 0, st
	}
	return s.push(v), host.OK
}

func (e *Engine) HasElement(env host.Env, obj host.Handle, index uint32) (bool, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return false, st
	}
	return s.hasProp(o, indexKey(index)), host.OK
}

func (e *Engine) DeleteElement(env host.Env, obj host.Handle, index uint32) (bool, host.Status) {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return false, st
	}
	return s.deleteProp(o, indexKey(index)), host.OK
}

// GetArrayLength reports ArrayExpected for anything but an Array.
func (e *Engine) GetArrayLength(env host.Env, h host.Handle) (uint32, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return 0, st
	}
	if !v.isObject() || v.obj.class != classArray {
		return 0, host.ArrayExpected
	}
	return v.obj.arrayLen, host.OK
}

// DefineProperties installs descriptors in order and stops at the first
// failure, leaving earlier ones in place.
func (e *Engine) DefineProperties(env host.Env, obj host.Handle, props []host.PropertyDescriptor) host.Status {
	s, o, st := e.named(env, obj)
	if st != host.OK {
		return st
	}
	for _, d := range props {
		k, st := s.descriptorKey(d)
		if st != host.OK {
			return st
		}
		p := &property{attrs: d.Attributes &^ host.AttrStatic, data: d.Data}
		switch {
		case d.Getter != nil || d.Setter != nil:
			p.accessor = true
			p.getter, p.setter = d.Getter, d.Setter
			p.attrs &^= host.AttrWritable
		case d.Method != nil:
			name := k.name
			if k.sym != nil {
				name = "[" + k.sym.description + "]"
			}
			p.value = objectValue(s.newFunction(name, d.Method, d.Data))
		default:
			if p.value, st = s.get(d.Value); st != host.OK {
				return st
			}
		}
		if st := s.defineProperty(o, k, p); st != host.OK {
			return st
		}
	}
	return host.OK
}

func (s *envState) descriptorKey(d host.PropertyDescriptor) (propKey, host.Status) {
	if d.Name != "" {
		return propKey{name: d.Name}, host.OK
	}
	v, st := s.get(d.Key)
	if st != host.OK {
		return propKey{}, host.NameExpected
	}
	if v.kind != host.String && v.kind != host.Symbol {
		return propKey{}, host.NameExpected
	}
	return s.keyOf(v)
}
