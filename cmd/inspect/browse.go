package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/wippyai/jsbind/host"
	"github.com/wippyai/jsbind/host/memhost"
	"github.com/wippyai/jsbind/value"
)

// entry is one row of a listing.
type entry struct {
	name    string
	kind    host.ValueType
	array   bool
	preview string
}

// container reports whether the entry can be descended into.
func (e entry) container() bool {
	return e.kind == host.Object || e.kind == host.Function
}

type browser struct {
	eng    *memhost.Engine
	env    host.Env
	root   value.Unknown
	filter *regexp2.Regexp
}

// load decodes a JSON document and encodes it into a fresh engine env.
func load(data []byte, opts memhost.Options) (*browser, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	eng := memhost.New(opts)
	env := eng.NewEnv()
	h, err := value.Encode(eng, env, doc)
	if err != nil {
		_ = eng.CloseAll()
		return nil, fmt.Errorf("encode: %w", err)
	}
	raw, err := value.NewRaw(eng, env, h)
	if err != nil {
		_ = eng.CloseAll()
		return nil, err
	}
	root, err := value.As[value.Unknown](raw)
	if err != nil {
		_ = eng.CloseAll()
		return nil, err
	}
	return &browser{eng: eng, env: env, root: root}, nil
}

func (b *browser) Close() error {
	return b.eng.CloseAll()
}

// setFilter compiles an ECMAScript pattern matched against property names.
// An empty pattern clears the filter.
func (b *browser) setFilter(pattern string) error {
	if pattern == "" {
		b.filter = nil
		return nil
	}
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	b.filter = re
	return nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, ".")
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

// resolve walks path from the root.
func (b *browser) resolve(path []string) (value.Unknown, error) {
	cur := b.root
	for i, seg := range path {
		next, err := b.child(cur, seg)
		if err != nil {
			return value.Unknown{}, fmt.Errorf("%s: %w", strings.Join(path[:i+1], "."), err)
		}
		cur = next
	}
	return cur, nil
}

func (b *browser) child(v value.Unknown, seg string) (value.Unknown, error) {
	isArr, err := v.IsArray()
	if err != nil {
		return value.Unknown{}, err
	}
	if isArr {
		idx, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return value.Unknown{}, fmt.Errorf("not an index: %q", seg)
		}
		arr, err := value.As[value.Array](v)
		if err != nil {
			return value.Unknown{}, err
		}
		n, err := arr.Len()
		if err != nil {
			return value.Unknown{}, err
		}
		if uint32(idx) >= n {
			return value.Unknown{}, fmt.Errorf("index %d out of range [0,%d)", idx, n)
		}
		var out value.Unknown
		err = arr.GetElement(uint32(idx), &out)
		return out, err
	}

	obj, err := value.As[value.Object](v)
	if err != nil {
		return value.Unknown{}, err
	}
	ok, err := obj.HasOwnProperty(seg)
	if err != nil {
		return value.Unknown{}, err
	}
	if !ok {
		return value.Unknown{}, fmt.Errorf("no property %q", seg)
	}
	return obj.Named(seg)
}

// entries lists the own enumerable properties of v, or its elements when
// v is an array. Scalars yield a single unnamed entry.
func (b *browser) entries(v value.Unknown) ([]entry, error) {
	kind, err := v.TypeOf()
	if err != nil {
		return nil, err
	}
	if kind != host.Object {
		e, err := b.describe("", v)
		if err != nil {
			return nil, err
		}
		return []entry{e}, nil
	}

	var names []string
	if isArr, err := v.IsArray(); err != nil {
		return nil, err
	} else if isArr {
		arr, err := value.As[value.Array](v)
		if err != nil {
			return nil, err
		}
		n, err := arr.Len()
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < n; i++ {
			names = append(names, strconv.FormatUint(uint64(i), 10))
		}
	} else {
		obj, err := value.As[value.Object](v)
		if err != nil {
			return nil, err
		}
		keys, err := obj.PropertyNames()
		if err != nil {
			return nil, err
		}
		if err := keys.Decode(&names); err != nil {
			return nil, err
		}
		sort.Strings(names)
	}

	out := make([]entry, 0, len(names))
	for _, name := range names {
		if b.filter != nil {
			ok, err := b.filter.MatchString(name)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", name, err)
			}
			if !ok {
				continue
			}
		}
		c, err := b.child(v, name)
		if err != nil {
			return nil, err
		}
		e, err := b.describe(name, c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *browser) describe(name string, v value.Unknown) (entry, error) {
	kind, err := v.TypeOf()
	if err != nil {
		return entry{}, err
	}
	e := entry{name: name, kind: kind}

	switch kind {
	case host.Object:
		if e.array, err = v.IsArray(); err != nil {
			return entry{}, err
		}
		if e.array {
			arr := value.CastUnchecked[value.Array](v)
			n, err := arr.Len()
			if err != nil {
				return entry{}, err
			}
			e.preview = fmt.Sprintf("[%d]", n)
			return e, nil
		}
		obj := value.CastUnchecked[value.Object](v)
		keys, err := obj.PropertyNames()
		if err != nil {
			return entry{}, err
		}
		n, err := keys.Len()
		if err != nil {
			return entry{}, err
		}
		e.preview = fmt.Sprintf("{%d}", n)
	case host.String:
		var s string
		if err := v.Decode(&s); err != nil {
			return entry{}, err
		}
		e.preview = strconv.Quote(s)
	default:
		var x any
		if err := v.Decode(&x); err != nil {
			return entry{}, err
		}
		e.preview = fmt.Sprint(x)
		if x == nil {
			e.preview = kind.String()
		}
	}
	return e, nil
}

func formatEntries(es []entry) string {
	var sb strings.Builder
	width := 0
	for _, e := range es {
		width = max(width, len(e.name))
	}
	for _, e := range es {
		if e.name == "" {
			fmt.Fprintf(&sb, "%s %s\n", e.kind, e.preview)
			continue
		}
		fmt.Fprintf(&sb, "%-*s  %-9s %s\n", width, e.name, e.kind, e.preview)
	}
	return sb.String()
}
