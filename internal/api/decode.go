package api

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tmaxmax/go-sse"
)

// Framing selects how a streamed response body is cut into chunks.
type Framing string

const (
	// FramingLines groups the body's lines into data records. A blank line
	// ends a record unless the text after it carries no field name, in which
	// case it continues the record as a new paragraph. Each record is one
	// chunk; comment and other field lines carry no text.
	FramingLines Framing = "lines"
	// FramingChunks treats every transport read as one chunk.
	FramingChunks Framing = "chunks"
	// FramingSSE parses Server-Sent Events; each event's data is one chunk.
	FramingSSE Framing = "sse"
)

func ParseFraming(s string) (Framing, error) {
	switch Framing(strings.ToLower(strings.TrimSpace(s))) {
	case "", FramingLines:
		return FramingLines, nil
	case FramingChunks:
		return FramingChunks, nil
	case FramingSSE:
		return FramingSSE, nil
	}
	return "", fmt.Errorf("unknown framing %q", s)
}

var dataPrefixRe = regexp.MustCompile(`(?m)^data:`)

// CleanChunk strips every line-leading "data:" marker and trims the result.
// Prefixes in the middle of a line are left alone.
func CleanChunk(s string) string {
	return strings.TrimSpace(dataPrefixRe.ReplaceAllString(s, ""))
}

const readBufSize = 4096

// Decode reads r until EOF and calls emit with each cleaned chunk in
// arrival order. EOF is the only completion signal; no terminator token is
// recognised.
func Decode(r io.Reader, f Framing, emit func(string)) error {
	switch f {
	case FramingChunks:
		return decodeChunks(r, emit)
	case FramingSSE:
		return decodeSSE(r, emit)
	default:
		return decodeLines(r, emit)
	}
}

func decodeLines(r io.Reader, emit func(string)) error {
	var rec []string
	err := scanFrames(r, func(line string) {
		switch {
		case line == "":
			if rec != nil {
				emit(strings.TrimSpace(strings.Join(rec, "\n")))
				rec = nil
			}
		case strings.HasPrefix(line, "data:"):
			rec = append(rec, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	})
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// scanFrames feeds r line by line through a frameJoiner.
func scanFrames(r io.Reader, out func(string)) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer for long single-line replies
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	j := frameJoiner{out: out}
	for scanner.Scan() {
		j.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	j.close()
	return nil
}

// frameJoiner normalizes a line-oriented body into well-formed event
// records. Text lines without a field name become data lines of the record
// they follow, and the blank lines between a record and such a line become
// empty data lines, so a reply holding paragraph breaks stays one record.
type frameJoiner struct {
	out    func(string)
	blanks int
	open   bool // a data record can still be continued
	ended  bool // the last line written was blank
}

func (j *frameJoiner) line(l string) {
	l = strings.TrimRight(l, "\r")
	if strings.TrimSpace(l) == "" {
		j.blanks++
		return
	}
	if isFieldLine(l) {
		j.flushBlanks()
		if fieldName(l) == "data" {
			j.open = true
		}
		j.write(l)
		return
	}
	if j.open {
		for ; j.blanks > 0; j.blanks-- {
			j.write("data:")
		}
	} else {
		j.flushBlanks()
	}
	j.open = true
	j.write("data:" + l)
}

func (j *frameJoiner) flushBlanks() {
	if j.blanks == 0 {
		return
	}
	for ; j.blanks > 0; j.blanks-- {
		j.write("")
	}
	j.open = false
}

// close dispatches the last record even when the body lacks a trailing
// blank line.
func (j *frameJoiner) close() {
	j.flushBlanks()
	if !j.ended {
		j.write("")
	}
}

func (j *frameJoiner) write(l string) {
	j.ended = l == ""
	j.out(l)
}

func fieldName(l string) string {
	name, _, _ := strings.Cut(l, ":")
	return name
}

// isFieldLine reports whether l is a comment or one of the event-stream
// fields. Anything else is reply text.
func isFieldLine(l string) bool {
	if strings.HasPrefix(l, ":") {
		return true
	}
	switch fieldName(l) {
	case "data", "event", "id", "retry":
		return true
	}
	return false
}

func decodeChunks(r io.Reader, emit func(string)) error {
	buf := make([]byte, readBufSize)
	var carry []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			complete, tail := splitPartialRune(data)
			carry = append([]byte(nil), tail...)
			if len(complete) > 0 {
				emit(CleanChunk(string(complete)))
			}
		}
		if err == io.EOF {
			if len(carry) > 0 {
				emit(CleanChunk(string(carry)))
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// splitPartialRune holds back a trailing multi-byte sequence that a read
// cut in half, so chunks never split a character.
func splitPartialRune(b []byte) (complete, tail []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], b[i:]
		}
		break
	}
	return b, nil
}

func decodeSSE(r io.Reader, emit func(string)) error {
	pr, pw := io.Pipe()
	defer pr.Close()
	go func() {
		var werr error
		err := scanFrames(r, func(line string) {
			if werr == nil {
				_, werr = io.WriteString(pw, line+"\n")
			}
		})
		pw.CloseWithError(err)
	}()

	for ev, err := range sse.Read(pr, nil) {
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		emit(CleanChunk(ev.Data))
	}
	return nil
}
