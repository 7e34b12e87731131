package memhost

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/wippyai/jsbind/host"
)

// throwAs makes a fresh error named name the pending exception.
func (s *envState) throwAs(name, msg string) host.Status {
	err := s.newError(undefinedValue, stringValue(msg), s.protos.error)
	s.defineHidden(err, "name", stringValue(name))
	v := objectValue(err)
	s.pending = &v
	return host.PendingException
}

func (s *envState) toBoolean(v value) bool {
	switch v.kind {
	case host.Undefined, host.Null:
		return false
	case host.Boolean:
		return v.b
	case host.Number:
		return v.num != 0 && !math.IsNaN(v.num)
	case host.String:
		return v.str != ""
	}
	return true
}

func (s *envState) toNumber(v value) (float64, host.Status) {
	switch v.kind {
	case host.Undefined:
		return math.NaN(), host.OK
	case host.Null:
		return 0, host.OK
	case host.Boolean:
		if v.b {
			return 1, host.OK
		}
		return 0, host.OK
	case host.Number:
		return v.num, host.OK
	case host.String:
		return parseNumber(v.str), host.OK
	case host.Symbol:
		return 0, s.throwAs("TypeError", "Cannot convert a Symbol value to a number")
	}

	switch o := v.obj; o.class {
	case classBoxed:
		return s.toNumber(o.prim)
	case classDate:
		return o.date, host.OK
	}
	str, st := s.objectString(v.obj, 0)
	if st != host.OK {
		return 0, st
	}
	return parseNumber(str), host.OK
}

func (s *envState) toString(v value) (string, host.Status) {
	switch v.kind {
	case host.Undefined:
		return "undefined", host.OK
	case host.Null:
		return "null", host.OK
	case host.Boolean:
		return strconv.FormatBool(v.b), host.OK
	case host.Number:
		return formatNumber(v.num), host.OK
	case host.String:
		return v.str, host.OK
	case host.Symbol:
		return "", s.throwAs("TypeError", "Cannot convert a Symbol value to a string")
	}
	return s.objectString(v.obj, 0)
}

const maxJoinDepth = 16

func (s *envState) objectString(o *object, depth int) (string, host.Status) {
	switch o.class {
	case classBoxed:
		return s.toString(o.prim)

	case classArray:
		if depth > maxJoinDepth {
			return "", host.OK
		}
		parts := make([]string, o.arrayLen)
		for i := range parts {
			el, st := s.getProp(o, objectValue(o), indexKey(uint32(i)))
			if st != host.OK {
				return "", st
			}
			switch {
			case el.kind == host.Undefined || el.kind == host.Null:
			case el.isObject():
				if parts[i], st = s.objectString(el.obj, depth+1); st != host.OK {
					return "", st
				}
			default:
				if parts[i], st = s.toString(el); st != host.OK {
					return "", st
				}
			}
		}
		return strings.Join(parts, ","), host.OK

	case classError:
		name, st := s.stringProp(o, "name", "Error")
		if st != host.OK {
			return "", st
		}
		msg, st := s.stringProp(o, "message", "")
		if st != host.OK {
			return "", st
		}
		switch {
		case msg == "":
			return name, host.OK
		case name == "":
			return msg, host.OK
		}
		return name + ": " + msg, host.OK

	case classDate:
		if math.IsNaN(o.date) {
			return "Invalid Date", host.OK
		}
		t := time.UnixMilli(int64(o.date)).UTC()
		return t.Format("Mon Jan 02 2006 15:04:05 GMT-0700") + " (Coordinated Universal Time)", host.OK

	case classFunction:
		return "function " + o.name + "() { [native code] }", host.OK
	}
	return "[object Object]", host.OK
}

func (s *envState) stringProp(o *object, name, fallback string) (string, host.Status) {
	v, st := s.getProp(o, objectValue(o), propKey{name: name})
	if st != host.OK {
		return "", st
	}
	if v.kind == host.Undefined {
		return fallback, host.OK
	}
	return s.toString(v)
}

// toObject boxes primitives; undefined and null throw.
func (s *envState) toObject(v value) (value, host.Status) {
	switch v.kind {
	case host.Undefined, host.Null:
		return value{}, s.throwAs("TypeError", "Cannot convert undefined or null to object")
	}
	if v.isObject() {
		return v, host.OK
	}
	o := s.alloc(classBoxed, s.protos.object)
	o.prim = v
	if v.kind == host.String {
		s.defineOwn(o, propKey{name: "length"}, &property{value: numberValue(float64(len([]rune(v.str))))})
	}
	return objectValue(o), host.OK
}

// formatNumber renders f the way Number.prototype.toString does.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + formatNumber(-f)
	}

	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k, n := len(digits), e+1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	ex := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + ex
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + ex
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// parseNumber implements StringToNumber.
func parseNumber(str string) float64 {
	str = strings.TrimFunc(str, isSpace)
	if str == "" {
		return 0
	}
	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(str) > 2 && str[0] == '0' {
		base := 0
		switch str[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(str[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	if strings.IndexFunc(str, func(r rune) bool {
		return !strings.ContainsRune("0123456789+-.eE", r)
	}) >= 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// toUint32 implements ToUint32.
func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

func toInt32(n float64) int32 {
	return int32(toUint32(n))
}

func toInt64(n float64) int64 {
	switch {
	case math.IsNaN(n) || math.IsInf(n, 0):
		return 0
	case n >= math.MaxInt64:
		return math.MaxInt64
	case n <= math.MinInt64:
		return math.MinInt64
	}
	return int64(n)
}
