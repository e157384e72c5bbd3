// Package sse extracts data frames from a server-sent event stream.
package sse

import "strings"

// Prefix marks a data line. Only lines carrying it are frames.
const Prefix = "data: "

// DefaultMaxLine caps how many bytes of an unterminated line are buffered.
const DefaultMaxLine = 1 << 20

// Decoder reassembles frames from text fragments that arrive at arbitrary
// boundaries. A fragment may hold part of a frame or several frames.
//
// A Decoder is single-use: create one per stream.
type Decoder struct {
	buf       strings.Builder
	maxLine   int
	skipping  bool
	overflows int
}

// NewDecoder returns an empty Decoder that buffers at most DefaultMaxLine
// bytes of a pending line.
func NewDecoder() *Decoder {
	return NewDecoderSize(DefaultMaxLine)
}

// NewDecoderSize returns an empty Decoder that buffers at most maxLine bytes
// of a pending line. A line that grows past the limit is discarded up to its
// terminator.
func NewDecoderSize(maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Decoder{maxLine: maxLine}
}

// Feed appends fragment to the buffer and returns the payloads of every
// complete data line, in order, with the prefix and line terminator removed.
// Lines without the data prefix (blank separators, comments, other fields)
// are dropped. The trailing incomplete line stays buffered.
func (d *Decoder) Feed(fragment string) []string {
	i := strings.LastIndexByte(fragment, '\n')
	if i < 0 {
		d.hold(fragment)
		return nil
	}

	head, rest := fragment[:i], fragment[i+1:]
	if d.skipping {
		// The oversized line ends at the first terminator in this fragment.
		d.skipping = false
		if j := strings.IndexByte(head, '\n'); j >= 0 {
			head = head[j+1:]
		} else {
			head = ""
		}
		d.buf.Reset()
	} else if d.buf.Len() > 0 {
		d.buf.WriteString(head)
		head = d.buf.String()
		d.buf.Reset()
	}
	d.hold(rest)

	var frames []string
	for line := range strings.SplitSeq(head, "\n") {
		if p, ok := payload(line); ok {
			frames = append(frames, p)
		}
	}
	return frames
}

// Overflows returns how many lines were discarded for exceeding the line
// limit.
func (d *Decoder) Overflows() int { return d.overflows }

func (d *Decoder) hold(partial string) {
	if d.skipping {
		return
	}
	if d.buf.Len()+len(partial) > d.maxLine {
		d.buf.Reset()
		d.skipping = true
		d.overflows++
		return
	}
	d.buf.WriteString(partial)
}

// Flush returns the buffered remainder as a final frame if it is an
// unterminated data line. Call it once the transport has ended.
func (d *Decoder) Flush() []string {
	rest := d.buf.String()
	d.buf.Reset()
	if d.skipping {
		d.skipping = false
		return nil
	}
	if p, ok := payload(rest); ok {
		return []string{p}
	}
	return nil
}

func payload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	return strings.CutPrefix(line, Prefix)
}
