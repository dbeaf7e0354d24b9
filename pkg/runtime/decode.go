package runtime

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// rawResponse is the transient result of decoding one socket
// conversation. It is owned by a single gateway call and never cached
// or shared.
type rawResponse struct {
	StatusCode int
	StatusText string
	Headers    map[string]string
	Body       []byte
}

var statusLineRE = regexp.MustCompile(`^HTTP/1\.\d (\d{3})\s*(.*)$`)

// decodeResponse splits the accumulated bytes into status line, header
// block and body, resolving chunked transfer encoding. Header names are
// lower-cased and trimmed; value casing is preserved. The body is
// returned as-is: sanitization is only safe for textual bodies and is
// applied by the caller where appropriate.
func decodeResponse(raw []byte) (*rawResponse, error) {
	head, body := splitHead(raw)

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil, &DecodeError{Reason: "no status line"}
	}

	m := statusLineRE.FindStringSubmatch(strings.TrimRight(lines[0], "\r"))
	if m == nil {
		return nil, &DecodeError{Reason: "unrecognized status line: " + truncate(lines[0], 64)}
	}
	code, _ := strconv.Atoi(m[1])

	headers := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if strings.Contains(strings.ToLower(headers["transfer-encoding"]), "chunked") {
		body = unchunk(body)
	}

	return &rawResponse{
		StatusCode: code,
		StatusText: m[2],
		Headers:    headers,
		Body:       body,
	}, nil
}

// splitHead locates the first blank-line boundary, accepting both CRLF
// and bare-LF framing, and returns the header block and the body.
func splitHead(raw []byte) (head, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		if j := bytes.Index(raw, []byte("\n\n")); j < 0 || i <= j {
			return raw[:i], raw[i+4:]
		}
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, nil
}

// unchunk strips chunk-size lines and the terminating zero-chunk marker
// from a chunked body, concatenating the chunk payloads in order.
//
// This is deliberately not a conformant chunked-transfer decoder: the
// declared sizes are trusted blindly and never validated against the
// bytes actually consumed. That is adequate for the runtime sockets
// this gateway talks to; anything that falls outside the declared
// framing is appended verbatim rather than rejected.
func unchunk(body []byte) []byte {
	var out bytes.Buffer
	rest := body
	for len(rest) > 0 {
		line, after := cutLine(rest)
		size, err := strconv.ParseInt(strings.TrimSpace(string(line)), 16, 64)
		if err != nil || size < 0 {
			// Malformed size line: keep the remainder as payload.
			out.Write(rest)
			break
		}
		if size == 0 {
			break
		}
		if size > int64(len(after)) {
			out.Write(after)
			break
		}
		out.Write(after[:size])
		rest = after[size:]
		// Skip the CRLF that terminates the chunk data.
		rest = bytes.TrimPrefix(rest, []byte("\r\n"))
		rest = bytes.TrimPrefix(rest, []byte("\n"))
	}
	return out.Bytes()
}

// cutLine splits off the first line, accepting CRLF or bare LF.
func cutLine(b []byte) (line, rest []byte) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil
	}
	line = b[:i]
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, b[i+1:]
}

// sanitize removes C0 and C1 control characters and raw NULs, and
// normalizes line endings to bare LF. The runtime occasionally emits
// stray control bytes that would otherwise corrupt JSON parsing
// downstream. Lossy on purpose; never apply it to binary log bodies.
func sanitize(b []byte) []byte {
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return []byte(strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r >= 0x80 && r <= 0x9f:
			return -1
		}
		return r
	}, s))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
