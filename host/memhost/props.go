package memhost

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"

	"github.com/wippyai/jsbind/host"
)

// arrayIndex parses canonical array index keys ("0", "17", not "01").
func arrayIndex(name string) (uint32, bool) {
	if name == "" || len(name) > 10 || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

func indexKey(i uint32) propKey {
	return propKey{name: strconv.FormatUint(uint64(i), 10)}
}

// keyOf applies ToPropertyKey to the value types accepted as keys.
func (s *envState) keyOf(v value) (propKey, host.Status) {
	switch v.kind {
	case host.String:
		return propKey{name: v.str}, host.OK
	case host.Symbol:
		return propKey{sym: v.sym}, host.OK
	case host.Number:
		return propKey{name: formatNumber(v.num)}, host.OK
	}
	return propKey{}, host.NameExpected
}

func keyValue(k propKey, conv host.KeyConversion) value {
	if k.sym != nil {
		return value{kind: host.Symbol, sym: k.sym}
	}
	if conv == host.KeyKeepNumbers {
		if i, ok := arrayIndex(k.name); ok {
			return numberValue(float64(i))
		}
	}
	return stringValue(k.name)
}

func (o *object) isView() bool {
	return o.class == classTypedArray || o.class == classBuffer
}

// ownProperty returns the own property for k, including the virtual ones:
// array length and typed array elements.
func (s *envState) ownProperty(o *object, k propKey) (*property, bool) {
	if k.sym == nil {
		if o.class == classArray && k.name == "length" {
			attrs := host.AttrWritable
			if !o.extensible && o.lengthLocked() {
				attrs = 0
			}
			return &property{value: numberValue(float64(o.arrayLen)), attrs: attrs}, true
		}
		if o.isView() {
			if i, ok := arrayIndex(k.name); ok {
				if i >= o.length {
					return nil, false
				}
				return &property{
					value: numberValue(s.viewGet(o, i)),
					attrs: host.AttrWritable | host.AttrEnumerable | host.AttrConfigurable,
				}, true
			}
		}
	}
	p, ok := o.props[k]
	return p, ok
}

// lengthLocked reports whether freeze made the length read-only.
func (o *object) lengthLocked() bool {
	p, ok := o.props[propKey{name: "\x00frozen"}]
	return ok && p.value.b
}

// defineOwn installs p under k, keeping insertion order and array length.
func (s *envState) defineOwn(o *object, k propKey, p *property) {
	if _, exists := o.props[k]; !exists {
		o.keys = append(o.keys, k)
	}
	o.props[k] = p
	if o.class == classArray && k.sym == nil {
		if i, ok := arrayIndex(k.name); ok && i >= o.arrayLen {
			o.arrayLen = i + 1
		}
	}
}

func (s *envState) removeOwn(o *object, k propKey) {
	delete(o.props, k)
	for i, kk := range o.keys {
		if kk == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			return
		}
	}
}

// getProp implements [[Get]] with receiver this.
func (s *envState) getProp(o *object, this value, k propKey) (value, host.Status) {
	for cur := o; cur != nil; cur = cur.proto {
		p, ok := s.ownProperty(cur, k)
		if !ok {
			continue
		}
		if !p.accessor {
			return p.value, host.OK
		}
		if p.getter == nil {
			return undefinedValue, host.OK
		}
		return s.invoke(p.getter, p.data, this, nil, nil)
	}
	return undefinedValue, host.OK
}

// setProp implements [[Set]] in sloppy mode, except that writes the
// engine would silently drop report GenericFailure.
func (s *envState) setProp(o *object, k propKey, v value) host.Status {
	if k.sym == nil {
		if o.class == classArray && k.name == "length" {
			return s.setLength(o, v)
		}
		if o.isView() {
			if i, ok := arrayIndex(k.name); ok {
				if i < o.length {
					n, st := s.toNumber(v)
					if st != host.OK {
						return st
					}
					s.viewSet(o, i, n)
				}
				return host.OK
			}
		}
	}

	for cur := o; cur != nil; cur = cur.proto {
		p, ok := cur.props[k]
		if !ok {
			continue
		}
		if p.accessor {
			if p.setter == nil {
				return host.GenericFailure
			}
			_, st := s.invoke(p.setter, p.data, objectValue(o), []value{v}, nil)
			return st
		}
		if !p.has(host.AttrWritable) {
			return host.GenericFailure
		}
		if cur == o {
			p.value = v
			return host.OK
		}
		break
	}

	if !o.extensible {
		return host.GenericFailure
	}
	if o.class == classArray && o.lengthLocked() {
		return host.GenericFailure
	}
	s.defineOwn(o, k, &property{value: v, attrs: host.AttrDefaultProperty})
	return host.OK
}

func (s *envState) setIndex(o *object, i uint32, v value) host.Status {
	return s.setProp(o, indexKey(i), v)
}

func (s *envState) setLength(o *object, v value) host.Status {
	if o.lengthLocked() {
		return host.GenericFailure
	}
	n, st := s.toNumber(v)
	if st != host.OK {
		return st
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxUint32-1 {
		return s.throw("Invalid array length")
	}
	newLen := uint32(n)
	if newLen < o.arrayLen {
		for _, k := range append([]propKey(nil), o.keys...) {
			if i, ok := arrayIndex(k.name); ok && k.sym == nil && i >= newLen {
				s.removeOwn(o, k)
			}
		}
	}
	o.arrayLen = newLen
	return host.OK
}

func (s *envState) hasProp(o *object, k propKey) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if _, ok := s.ownProperty(cur, k); ok {
			return true
		}
	}
	return false
}

func (s *envState) hasOwn(o *object, k propKey) bool {
	_, ok := s.ownProperty(o, k)
	return ok
}

// deleteProp implements [[Delete]]: false for non-configurable properties.
func (s *envState) deleteProp(o *object, k propKey) bool {
	if k.sym == nil {
		if o.class == classArray && k.name == "length" {
			return false
		}
		if o.isView() {
			if i, ok := arrayIndex(k.name); ok {
				return i >= o.length
			}
		}
	}
	p, ok := o.props[k]
	if !ok {
		return true
	}
	if !p.has(host.AttrConfigurable) {
		return false
	}
	s.removeOwn(o, k)
	return true
}

// ownKeys lists own keys in property order: integer keys ascending, then
// strings in insertion order, then symbols in insertion order.
func (s *envState) ownKeys(o *object) []propKey {
	var (
		indices []uint32
		strs    []propKey
		syms    []propKey
	)
	if o.isView() {
		for i := uint32(0); i < o.length; i++ {
			indices = append(indices, i)
		}
	}
	for _, k := range o.keys {
		switch {
		case k.sym != nil:
			syms = append(syms, k)
		case k.name == "\x00frozen":
		default:
			if i, ok := arrayIndex(k.name); ok {
				indices = append(indices, i)
			} else {
				strs = append(strs, k)
			}
		}
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })

	out := make([]propKey, 0, len(indices)+len(strs)+len(syms)+1)
	for _, i := range indices {
		out = append(out, indexKey(i))
	}
	if o.class == classArray {
		out = append(out, propKey{name: "length"})
	}
	out = append(out, strs...)
	return append(out, syms...)
}

func (s *envState) collectKeys(o *object, mode host.KeyCollectionMode, filter host.KeyFilter, conv host.KeyConversion) []value {
	seen := make(map[propKey]bool)
	var out []value
	for cur := o; cur != nil; cur = cur.proto {
		for _, k := range s.ownKeys(cur) {
			if seen[k] {
				continue
			}
			seen[k] = true

			p, _ := s.ownProperty(cur, k)
			switch {
			case filter&host.KeyWritable != 0 && (p.accessor || !p.has(host.AttrWritable)):
				continue
			case filter&host.KeyEnumerable != 0 && !p.has(host.AttrEnumerable):
				continue
			case filter&host.KeyConfigurable != 0 && !p.has(host.AttrConfigurable):
				continue
			case filter&host.KeySkipStrings != 0 && k.sym == nil:
				continue
			case filter&host.KeySkipSymbols != 0 && k.sym != nil:
				continue
			}
			out = append(out, keyValue(k, conv))
		}
		if mode == host.KeyOwnOnly {
			break
		}
	}
	return out
}

// defineProperty installs a descriptor on o, as Object.defineProperty.
func (s *envState) defineProperty(o *object, k propKey, p *property) host.Status {
	if old, ok := o.props[k]; ok {
		if !old.has(host.AttrConfigurable) {
			return s.throw("Cannot redefine property: " + k.name)
		}
	} else if !o.extensible {
		return s.throw("Cannot define property " + k.name + ", object is not extensible")
	}
	s.defineOwn(o, k, p)
	return host.OK
}

// freeze and seal lock every own property; freeze also makes data
// properties read-only.
func (s *envState) lock(o *object, freeze bool) {
	o.extensible = false
	for _, p := range o.props {
		p.attrs &^= host.AttrConfigurable
		if freeze && !p.accessor {
			p.attrs &^= host.AttrWritable
		}
	}
	if freeze && o.class == classArray {
		o.props[propKey{name: "\x00frozen"}] = &property{value: boolValue(true)}
	}
}

func (s *envState) newArrayOf(vals []value) *object {
	arr := s.newArray(0)
	for i, v := range vals {
		s.defineOwn(arr, indexKey(uint32(i)), &property{value: v, attrs: host.AttrDefaultProperty})
	}
	return arr
}

// view element access

func (o *object) viewBytes() []byte {
	b := o.backing.data
	return b[o.offset:]
}

func (s *envState) viewGet(o *object, i uint32) float64 {
	b := o.viewBytes()
	size := o.taType.ElementSize()
	at := b[i*size : (i+1)*size]
	le := binary.LittleEndian
	switch o.taType {
	case host.Int8Array:
		return float64(int8(at[0]))
	case host.Uint8Array, host.Uint8ClampedArray:
		return float64(at[0])
	case host.Int16Array:
		return float64(int16(le.Uint16(at)))
	case host.Uint16Array:
		return float64(le.Uint16(at))
	case host.Int32Array:
		return float64(int32(le.Uint32(at)))
	case host.Uint32Array:
		return float64(le.Uint32(at))
	case host.Float32Array:
		return float64(math.Float32frombits(le.Uint32(at)))
	case host.Float64Array:
		return math.Float64frombits(le.Uint64(at))
	case host.BigInt64Array:
		return float64(int64(le.Uint64(at)))
	case host.BigUint64Array:
		return float64(le.Uint64(at))
	}
	return math.NaN()
}

func (s *envState) viewSet(o *object, i uint32, n float64) {
	b := o.viewBytes()
	size := o.taType.ElementSize()
	at := b[i*size : (i+1)*size]
	le := binary.LittleEndian
	switch o.taType {
	case host.Int8Array, host.Uint8Array:
		at[0] = byte(toUint32(n))
	case host.Uint8ClampedArray:
		at[0] = clampByte(n)
	case host.Int16Array, host.Uint16Array:
		le.PutUint16(at, uint16(toUint32(n)))
	case host.Int32Array, host.Uint32Array:
		le.PutUint32(at, toUint32(n))
	case host.Float32Array:
		le.PutUint32(at, math.Float32bits(float32(n)))
	case host.Float64Array:
		le.PutUint64(at, math.Float64bits(n))
	case host.BigInt64Array, host.BigUint64Array:
		le.PutUint64(at, uint64(int64(n)))
	}
}

func clampByte(n float64) byte {
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= 255:
		return 255
	}
	return byte(math.RoundToEven(n))
}
