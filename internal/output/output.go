package output

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/cosmez/respfmt/internal/resp"
	"github.com/cosmez/respfmt/internal/serializer"
)

// PrintOpts configures how a RedisValue is printed.
type PrintOpts struct {
	Color      bool
	Serializer serializer.Serializer // decodes string replies when set
	Padding    string
	TypeHint   string // "hash" or "stream" print field=value pairs
	Newline    bool
}

var (
	colorString  = color.New(color.FgHiBlue)
	colorInteger = color.New(color.FgHiGreen)
	colorError   = color.New(color.FgRed, color.Bold)
	colorNull    = color.New(color.FgHiBlack)
	colorArray   = color.New(color.FgHiYellow)
	colorIndex   = color.New(color.FgHiBlack)
)

type printer struct {
	w     io.Writer
	color bool
	codec serializer.Serializer
}

func (p *printer) paint(c *color.Color, s string) {
	if p.color {
		c.Fprint(p.w, s)
		return
	}
	fmt.Fprint(p.w, s)
}

func (p *printer) decode(s string) string {
	if p.codec == nil {
		return s
	}
	if out, err := p.codec.Deserialize([]byte(s)); err == nil {
		return string(out)
	}
	return s
}

// value prints v and reports whether the output already ends in a newline.
func (p *printer) value(v resp.RedisValue, pad, hint string) bool {
	arr, ok := v.(resp.RedisArray)
	switch {
	case !ok:
		p.scalar(v)
		return false
	case len(arr.Values) == 0:
		p.paint(colorNull, "(empty array)")
		return false
	case hint == "hash" || hint == "stream":
		p.pairs(arr.Values, pad, hint)
		return true
	}
	p.list(arr.Values, pad)
	return true
}

// list prints a numbered array with right-aligned indexes. Nested arrays
// start on the same line as their index.
func (p *printer) list(values []resp.RedisValue, pad string) {
	digits := len(strconv.Itoa(len(values)))
	child := pad + strings.Repeat(" ", digits+2)
	for i, v := range values {
		if i > 0 {
			fmt.Fprint(p.w, pad)
		}
		p.paint(colorIndex, fmt.Sprintf("%*d) ", digits, i+1))
		if !p.value(v, child, "") {
			fmt.Fprintln(p.w)
		}
	}
}

func (p *printer) pairs(values []resp.RedisValue, pad, hint string) {
	mark := "#"
	if hint == "stream" {
		mark = "@"
	}
	if pad != "" {
		fmt.Fprintln(p.w)
	}
	child := pad + "  "
	for i := 0; i < len(values); i += 2 {
		fmt.Fprint(p.w, pad+mark)
		p.value(values[i], child, "")
		if i+1 < len(values) {
			fmt.Fprint(p.w, "=")
			p.value(values[i+1], child, "")
		}
		fmt.Fprintln(p.w)
	}
}

func (p *printer) scalar(v resp.RedisValue) {
	switch v.Type() {
	case resp.TypeString:
		p.paint(colorString, p.decode(v.StringValue()))
	case resp.TypeNull:
		p.paint(colorNull, "(nil)")
	case resp.TypeBulkString:
		if bs, ok := v.(resp.RedisBulkString); ok && bs.Length == -1 {
			p.paint(colorNull, "(nil)")
			return
		}
		p.paint(colorString, `"`+p.decode(v.StringValue())+`"`)
	case resp.TypeInteger:
		p.paint(colorInteger, "(integer) "+v.StringValue())
	case resp.TypeError:
		p.paint(colorError, v.StringValue())
	}
}

// PrintRedisValue prints a RedisValue in redis-cli style, optionally colored.
func PrintRedisValue(w io.Writer, v resp.RedisValue, opts PrintOpts) {
	if v == nil {
		return
	}
	p := &printer{w: w, color: opts.Color, codec: opts.Serializer}
	if !p.value(v, opts.Padding, opts.TypeHint) && opts.Newline {
		fmt.Fprintln(w)
	}
}

// PrintRedisValues prints an iterator of values, asking on r whether to go
// on after every warningAt items.
func PrintRedisValues(w io.Writer, r io.Reader, values iter.Seq[resp.RedisValue], opts PrintOpts, warningAt int) {
	i := 0
	for value := range values {
		i++

		switch opts.TypeHint {
		case "stream":
			// Entries are [id, [field value ...]].
			if entry, ok := value.(resp.RedisArray); ok && len(entry.Values) >= 2 {
				PrintRedisValue(w, entry.Values[0], PrintOpts{Color: opts.Color})
				fields := opts
				fields.Padding = " "
				fields.Newline = false
				PrintRedisValue(w, entry.Values[1], fields)
			}
		case "hash":
			pair := opts
			pair.Newline = false
			PrintRedisValue(w, value, pair)
		default:
			p := &printer{w: w, color: opts.Color}
			p.paint(colorIndex, fmt.Sprintf("%d) ", i))
			PrintRedisValue(w, value, opts)
		}

		if warningAt > 0 && i%warningAt == 0 && !confirm(w, r, opts.Color) {
			return
		}
	}
}

// confirm asks to continue a listing. It reads r one byte at a time so input
// meant for the REPL is not buffered away.
func confirm(w io.Writer, r io.Reader, useColor bool) bool {
	fmt.Fprint(w, "Continue Listing? ")
	(&printer{w: w, color: useColor}).paint(colorArray, "(Y/N) ")

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err != nil {
			break
		}
	}
	ans := strings.TrimSpace(string(line))
	return ans != "" && (ans[0] == 'Y' || ans[0] == 'y')
}

// PipeRedisValue feeds v, one line per scalar, to a shell command.
func PipeRedisValue(w io.Writer, v resp.RedisValue, shellCmd string) error {
	args := strings.Fields(shellCmd)
	if len(args) == 0 {
		return nil
	}

	var in bytes.Buffer
	writeRawValue(&in, v)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = &in
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pipe to %q failed: %w", args[0], err)
	}
	return nil
}

func writeRawValue(w io.Writer, v resp.RedisValue) {
	if v == nil {
		return
	}
	if array, ok := v.(resp.RedisArray); ok {
		for _, element := range array.Values {
			writeRawValue(w, element)
		}
		return
	}
	fmt.Fprintln(w, v.StringValue())
}
