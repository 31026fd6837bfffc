package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxDirectiveLen bounds a numeric directive from '%' through the conversion
// character, e.g. "%#0-+10.4lld" is 12 bytes.
const maxDirectiveLen = 13

const (
	intVerbs   = "diouxX"
	floatVerbs = "eEfFgGaA"
)

// DirectiveKind classifies the argument a directive consumes.
type DirectiveKind int

const (
	KindString  DirectiveKind = iota // %s
	KindBinary                       // %b
	KindPercent                      // %%, consumes nothing
	KindInt                          // %d %i
	KindUint                         // %o %u %x %X
	KindFloat                        // %e %E %f %F %g %G %a %A
)

func (k DirectiveKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindPercent:
		return "percent"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	}
	return "DirectiveKind(" + strconv.Itoa(int(k)) + ")"
}

// Directive is one parsed %-conversion of a template.
type Directive struct {
	Spec   string // "%s", "%b", "%%" or a numeric spec such as "%08.3lld"
	Offset int    // byte offset of '%' in the template
	Kind   DirectiveKind

	flags   string
	width   string
	prec    string
	hasPrec bool
	size    string // "", "hh", "h", "l" or "ll"
	verb    byte
}

// scanDirective parses the directive starting at template[start], which must
// be a '%' followed by at least one byte. It returns the directive and the
// index just past its conversion character.
func scanDirective(template string, start int) (Directive, int, error) {
	d := Directive{Offset: start}

	switch template[start+1] {
	case 's':
		d.Kind, d.Spec = KindString, "%s"
		return d, start + 2, nil
	case 'b':
		d.Kind, d.Spec = KindBinary, "%b"
		return d, start + 2, nil
	case '%':
		d.Kind, d.Spec = KindPercent, "%%"
		return d, start + 2, nil
	}

	p := start + 1
	at := func(i int) byte {
		if i < len(template) {
			return template[i]
		}
		return 0
	}

	// Flags are accepted in this order only, each at most once.
	flagStart := p
	for _, f := range []byte("#0- +") {
		if at(p) == f {
			p++
		}
	}
	d.flags = template[flagStart:p]

	widthStart := p
	for isDigit(at(p)) {
		p++
	}
	d.width = template[widthStart:p]

	if at(p) == '.' {
		p++
		d.hasPrec = true
		precStart := p
		for isDigit(at(p)) {
			p++
		}
		d.prec = template[precStart:p]
	}

	invalid := func() (Directive, int, error) {
		end := min(p+1, len(template))
		return Directive{}, 0, fmt.Errorf("%w: %q at offset %d", ErrInvalidFormat, template[start:end], start)
	}

	switch c := at(p); {
	case c != 0 && strings.IndexByte(intVerbs, c) >= 0:
		d.verb = c
	case c != 0 && strings.IndexByte(floatVerbs, c) >= 0:
		d.verb = c
	default:
		switch {
		case c == 'h' && at(p+1) == 'h':
			d.size, p = "hh", p+2
		case c == 'h':
			d.size, p = "h", p+1
		case c == 'l' && at(p+1) == 'l':
			d.size, p = "ll", p+2
		case c == 'l':
			d.size, p = "l", p+1
		default:
			return invalid()
		}
		if c := at(p); c == 0 || strings.IndexByte(intVerbs, c) < 0 {
			return invalid()
		}
		d.verb = at(p)
	}

	switch d.verb {
	case 'd', 'i':
		d.Kind = KindInt
	case 'o', 'u', 'x', 'X':
		d.Kind = KindUint
	default:
		d.Kind = KindFloat
	}

	d.Spec = template[start : p+1]
	if len(d.Spec) > maxDirectiveLen {
		return invalid()
	}
	return d, p + 1, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// appendArg renders arg according to d and appends the result to dst.
func (d Directive) appendArg(dst []byte, arg any) ([]byte, error) {
	switch d.Kind {
	case KindString:
		switch v := arg.(type) {
		case nil:
			return nil, fmt.Errorf("%w at offset %d", ErrNilArgument, d.Offset)
		case string:
			return append(dst, v...), nil
		case []byte:
			return append(dst, v...), nil
		case fmt.Stringer:
			return append(dst, v.String()...), nil
		}
	case KindBinary:
		switch v := arg.(type) {
		case []byte:
			return append(dst, v...), nil
		case string:
			return append(dst, v...), nil
		}
	case KindPercent:
		return append(dst, '%'), nil
	case KindInt, KindUint:
		if bits, ok := integerBits(arg); ok {
			return append(dst, d.formatInteger(bits)...), nil
		}
	case KindFloat:
		switch v := arg.(type) {
		case float64:
			return append(dst, d.formatFloat(v)...), nil
		case float32:
			return append(dst, d.formatFloat(float64(v))...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s wants %s, got %T at offset %d", ErrArgumentType, d.Spec, d.Kind, arg, d.Offset)
}

// integerBits returns the two's complement bits of any Go integer.
func integerBits(arg any) (uint64, bool) {
	switch v := arg.(type) {
	case int:
		return uint64(v), true
	case int8:
		return uint64(v), true
	case int16:
		return uint64(v), true
	case int32:
		return uint64(v), true
	case int64:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case uintptr:
		return uint64(v), true
	}
	return 0, false
}

// goSpec rebuilds the directive as a Go fmt verb. dropFlags removes flags Go
// would honor but C ignores for this conversion.
func (d Directive) goSpec(verb byte, dropFlags string, withWidth bool) string {
	var b strings.Builder
	b.WriteByte('%')
	for i := 0; i < len(d.flags); i++ {
		if strings.IndexByte(dropFlags, d.flags[i]) < 0 {
			b.WriteByte(d.flags[i])
		}
	}
	if withWidth {
		b.WriteString(d.width)
	}
	if d.hasPrec {
		b.WriteByte('.')
		b.WriteString(d.prec)
	}
	b.WriteByte(verb)
	return b.String()
}

// formatInteger truncates bits to the C type named by the size modifier and
// renders it the way printf would.
func (d Directive) formatInteger(bits uint64) string {
	if d.Kind == KindInt {
		var v int64
		switch d.size {
		case "hh":
			v = int64(int8(bits))
		case "h":
			v = int64(int16(bits))
		case "":
			v = int64(int32(bits))
		default:
			v = int64(bits)
		}
		if v == 0 && d.zeroPrecision() {
			// Zero digits, but printf still writes the sign flag.
			s := ""
			switch {
			case strings.Contains(d.flags, "+"):
				s = "+"
			case strings.Contains(d.flags, " "):
				s = " "
			}
			return d.pad(s, false)
		}
		return fmt.Sprintf(d.goSpec('d', "#", true), v)
	}

	var u uint64
	switch d.size {
	case "hh":
		u = uint64(uint8(bits))
	case "h":
		u = uint64(uint16(bits))
	case "":
		u = uint64(uint32(bits))
	default:
		u = bits
	}

	if u == 0 && d.zeroPrecision() {
		if d.verb == 'o' && strings.Contains(d.flags, "#") {
			return d.pad("0", false)
		}
		return d.pad("", false)
	}

	drop := " +"
	verb := d.verb
	switch verb {
	case 'u':
		verb, drop = 'd', " +#"
	case 'x', 'X':
		// printf omits the 0x prefix for zero.
		if u == 0 {
			drop = " +#"
			break
		}
		// printf counts the 0x prefix in the zero padded width, fmt does not.
		if strings.Contains(d.flags, "#") && !d.hasPrec {
			return d.pad(fmt.Sprintf(d.goSpec(verb, drop+"0-", false), u), true)
		}
	}
	return fmt.Sprintf(d.goSpec(verb, drop, true), u)
}

// zeroPrecision reports an explicit precision of zero, as in "%.0d" or "%.d".
func (d Directive) zeroPrecision() bool {
	if !d.hasPrec {
		return false
	}
	p, _ := strconv.Atoi(d.prec)
	return p == 0
}

func (d Directive) formatFloat(v float64) string {
	upper := d.verb >= 'A' && d.verb <= 'Z'

	if math.IsInf(v, 0) || math.IsNaN(v) {
		s := "nan"
		if math.IsInf(v, 0) {
			s = "inf"
		}
		if upper {
			s = strings.ToUpper(s)
		}
		switch {
		case math.IsInf(v, -1):
			s = "-" + s
		case strings.Contains(d.flags, "+"):
			s = "+" + s
		case strings.Contains(d.flags, " "):
			s = " " + s
		}
		return d.pad(s, false)
	}

	switch d.verb {
	case 'a', 'A':
		verb := byte('x')
		if upper {
			verb = 'X'
		}
		s := trimExponent(fmt.Sprintf(d.goSpec(verb, "#0-", false), v))
		if strings.Contains(d.flags, "#") {
			s = forceRadix(s)
		}
		return d.pad(s, true)
	case 'g', 'G':
		if !d.hasPrec {
			nd := d
			nd.hasPrec, nd.prec = true, "6"
			return fmt.Sprintf(nd.goSpec(d.verb, "", true), v)
		}
	}
	return fmt.Sprintf(d.goSpec(d.verb, "", true), v)
}

// trimExponent drops the zero padding Go puts on hexadecimal float exponents
// ("p+01" becomes "p+1").
func trimExponent(s string) string {
	i := strings.LastIndexAny(s, "pP")
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// forceRadix inserts the '.' the '#' flag requires in a hexadecimal float
// that has no fraction digits ("0x1p+0" becomes "0x1.p+0").
func forceRadix(s string) string {
	i := strings.LastIndexAny(s, "pP")
	if i < 0 || strings.IndexByte(s[:i], '.') >= 0 {
		return s
	}
	return s[:i] + "." + s[i:]
}

// pad applies the field width to an already rendered value. zeroOK enables the
// '0' flag, which pads after the sign and any 0x prefix.
func (d Directive) pad(s string, zeroOK bool) string {
	width, _ := strconv.Atoi(d.width)
	if len(s) >= width {
		return s
	}
	fill := width - len(s)
	switch {
	case strings.Contains(d.flags, "-"):
		return s + strings.Repeat(" ", fill)
	case zeroOK && strings.Contains(d.flags, "0"):
		prefix := 0
		if prefix < len(s) && strings.IndexByte("+- ", s[prefix]) >= 0 {
			prefix++
		}
		if prefix+1 < len(s) && s[prefix] == '0' && (s[prefix+1] == 'x' || s[prefix+1] == 'X') {
			prefix += 2
		}
		return s[:prefix] + strings.Repeat("0", fill) + s[prefix:]
	}
	return strings.Repeat(" ", fill) + s
}
