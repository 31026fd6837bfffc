package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/resp"
)

// previewLen caps how much of a payload PrintFrame shows.
const previewLen = 32

// FrameArg is one argument of an encoded command.
type FrameArg struct {
	Index   int
	Offset  int // first payload byte in the frame
	Payload []byte
}

// FrameRecorder collects every argument as the encoder writes it. Next, when
// set, is notified as well, e.g. a cluster.KeyObserver.
type FrameRecorder struct {
	Args []FrameArg
	Next resp.ArgObserver
}

var _ resp.ArgObserver = (*FrameRecorder)(nil)

func (r *FrameRecorder) ObserveArg(index, offset int, arg []byte) {
	r.Args = append(r.Args, FrameArg{
		Index:   index,
		Offset:  offset,
		Payload: append([]byte(nil), arg...),
	})
	if r.Next != nil {
		r.Next.ObserveArg(index, offset, arg)
	}
}

// Preview quotes payload for display, cut to previewLen bytes.
func Preview(payload []byte) string {
	if len(payload) <= previewLen {
		return strconv.Quote(string(payload))
	}
	return strconv.Quote(string(payload[:previewLen])) + "..."
}

// PrintFrame shows an encoded command: the escaped frame, its size and one
// line per argument with offset, length and payload. The routing key, when
// key has found one, is annotated with its slot.
func PrintFrame(w io.Writer, frame []byte, args []FrameArg, key *cluster.KeyObserver, useColor bool) {
	p := &printer{w: w, color: useColor}

	p.paint(colorString, strconv.Quote(string(frame)))
	fmt.Fprintf(w, "\n%d bytes, %d arguments\n", len(frame), len(args))

	var maxOffset, maxLen int
	for _, a := range args {
		maxOffset = max(maxOffset, a.Offset)
		maxLen = max(maxLen, len(a.Payload))
	}
	idxWidth := len(strconv.Itoa(max(len(args)-1, 0)))
	offWidth := len(strconv.Itoa(maxOffset))
	lenWidth := len(strconv.Itoa(maxLen))

	for _, a := range args {
		fmt.Fprint(w, "  ")
		p.paint(colorIndex, fmt.Sprintf("%*d)", idxWidth, a.Index))
		fmt.Fprintf(w, " offset %*d len %*d ", offWidth, a.Offset, lenWidth, len(a.Payload))
		p.paint(colorString, Preview(a.Payload))
		if key != nil && key.Found && key.Offset == a.Offset {
			fmt.Fprint(w, " ")
			p.paint(colorInteger, fmt.Sprintf("slot %d", key.Slot))
		}
		fmt.Fprintln(w)
	}
}
