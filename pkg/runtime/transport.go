package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"time"
)

// socketTimeout is the fixed idle deadline for one socket conversation.
// It is the only cancellation mechanism for an in-flight runtime call.
const socketTimeout = 30 * time.Second

// request is one pre-built HTTP/1.1 request ready for framing onto the
// socket.
type request struct {
	Method  string
	Path    string // path plus query string
	Headers map[string]string
	Body    []byte
}

// roundTrip opens a fresh connection to the endpoint's socket, writes
// the request as a single framed blob and accumulates every byte the
// runtime writes back until it closes the connection. The runtime
// protocol here is one-shot per request (Connection: close), so no
// pooling and no keep-alive.
func roundTrip(ctx context.Context, endpoint Endpoint, req request) ([]byte, error) {
	dialer := net.Dialer{Timeout: socketTimeout}
	conn, err := dialer.DialContext(ctx, "unix", endpoint.SocketPath)
	if err != nil {
		return nil, &TransportError{Op: req.Method + " " + req.Path, Socket: endpoint.SocketPath, Err: err}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(socketTimeout)); err != nil {
		return nil, &TransportError{Op: req.Method + " " + req.Path, Socket: endpoint.SocketPath, Err: err}
	}

	if _, err := conn.Write(frameRequest(req)); err != nil {
		return nil, transportErr(req, endpoint, err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, transportErr(req, endpoint, err)
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Reason: "empty response from runtime"}
	}
	return raw, nil
}

// frameRequest serializes the request into HTTP/1.1 wire format. The
// Host header is required by both runtime dialects but its value is
// ignored; Connection: close makes the runtime terminate the response
// by closing the socket.
func frameRequest(req request) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", req.Method, req.Path)
	buf.WriteString("Host: localhost\r\n")
	buf.WriteString("Connection: close\r\n")

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, req.Headers[name])
	}

	if len(req.Body) > 0 {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(req.Body))
	}
	buf.WriteString("\r\n")
	buf.Write(req.Body)
	return buf.Bytes()
}

// transportErr classifies a socket I/O failure, marking deadline
// expirations so callers can tell a hung runtime from an absent one.
func transportErr(req request, endpoint Endpoint, err error) *TransportError {
	te := &TransportError{Op: req.Method + " " + req.Path, Socket: endpoint.SocketPath, Err: err}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		te.Timeout = true
	}
	return te
}
