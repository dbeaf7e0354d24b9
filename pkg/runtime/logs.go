package runtime

import (
	"encoding/binary"
	"strings"
)

// logFrameHeaderLen is the size of one multiplexed log frame header:
// [streamType:1][reserved:3][length:4 big-endian].
const logFrameHeaderLen = 8

// DemuxLogStream interprets the body of a container-logs response as a
// sequence of stdout/stderr frames and returns the payload text as
// ordered, non-blank lines.
//
// The scan is permissive and self-correcting: the moment a header looks
// wrong (short buffer, unknown stream type, zero or oversized length)
// the remainder of the buffer is treated as plain text instead. A
// container killed mid-stream must degrade to readable text, never to
// an error, so this function cannot fail. Bodies with no frames at all
// (older runtimes return plain text) take the same fallback.
func DemuxLogStream(body []byte) []string {
	var lines []string

	offset := 0
	framed := false
	for offset < len(body) {
		rest := body[offset:]
		if len(rest) < logFrameHeaderLen {
			lines = append(lines, textLines(rest)...)
			break
		}
		streamType := rest[0]
		length := binary.BigEndian.Uint32(rest[4:8])
		if streamType > 2 || length == 0 || int(length) > len(rest)-logFrameHeaderLen {
			lines = append(lines, textLines(rest)...)
			break
		}
		payload := rest[logFrameHeaderLen : logFrameHeaderLen+int(length)]
		lines = append(lines, textLines(payload)...)
		offset += logFrameHeaderLen + int(length)
		framed = true
	}

	if framed && len(lines) == 0 {
		// Valid framing but nothing readable in it: fall back to the
		// whole buffer as plain text.
		return textLines(body)
	}
	return lines
}

// textLines splits a byte buffer into trimmed, non-blank lines.
func textLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
