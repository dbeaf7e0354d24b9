/*
Package runtime speaks to a Docker or Podman engine over its unix socket.

The package carries its own minimal HTTP/1.1 client instead of an engine
SDK. Each API call opens a fresh unix socket connection, writes one
request with Connection: close, and reads until EOF. This keeps the
dependency surface tiny and works identically against Docker's daemon
API and Podman's libpod API.

# Architecture

	┌──────────────────── RUNTIME GATEWAY ────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐         │
	│  │               Gateway                       │         │
	│  │  - Typed operations (list, create, start)  │         │
	│  │  - Status errors for non-2xx responses     │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │          Dialect Translation                │         │
	│  │  - Docker:  /v1.41/...                      │         │
	│  │  - Podman:  /v4.0.0/libpod/...              │         │
	│  │  - Request shaping + response normalizing  │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │          Response Decoding                  │         │
	│  │  - Status line + header parsing            │         │
	│  │  - Chunked transfer decoding               │         │
	│  │  - Control character sanitization          │         │
	│  │  - Log stream demultiplexing               │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │          Socket Transport                   │         │
	│  │  - One connection per request              │         │
	│  │  - 30s absolute deadline                   │         │
	│  │  - Read to EOF (Connection: close)         │         │
	│  └────────────────────────────────────────────┘         │
	│                                                          │
	└──────────────────────────────────────────────────────────┘

# Endpoint Discovery

NewGateway with an empty socket path probes the well-known locations in
order and picks the first socket that exists:

 1. /var/run/docker.sock
 2. /run/podman/podman.sock
 3. $XDG_RUNTIME_DIR/podman/podman.sock

A socket path containing "podman" selects the libpod dialect; anything
else is treated as Docker. Docker-compatible engines (including
Podman's Docker-compat socket) therefore go through the Docker dialect,
which is what they expect.

# Dialects

The two engines disagree on paths, query parameters, and body shapes.
The dialect layer owns every such difference so callers never see it:

  - Create: Docker takes the container name as a query parameter,
    Podman takes it as a Name field in the JSON body.
  - Pull: Docker uses /images/create?fromImage=X&tag=Y, Podman uses
    /images/pull?reference=X:Y.
  - Create response: Docker returns {"Id": ...}, Podman {"id": ...}.
    Both normalize to CreateResult.

# Results

Engine responses are JSON most of the time but not always. Result
carries both possibilities: Parsed holds the decoded object when the
body was valid JSON, Raw holds the sanitized text otherwise. Callers
check IsParsed before reaching into Parsed.

# Errors

Failures are classified so callers can react sensibly:

	TransportError  socket unreachable, write failed, deadline hit
	DecodeError     response did not parse as HTTP
	DialectError    operation not expressible in the active dialect
	StatusError     engine answered with a 4xx/5xx status

IsConflict reports a 409 (name already taken), IsTimeout reports a
deadline expiry. Both match through wrapped errors.

# Usage

	gw, err := runtime.NewGateway("")
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := gw.PullImage(ctx, "docker.io/library/mysql", "8.0"); err != nil {
		return err
	}

	res, err := gw.CreateContainer(ctx, runtime.CreateSpec{
		Name:  "orders-db",
		Image: "docker.io/library/mysql:8.0",
		Env:   []string{"MYSQL_ROOT_PASSWORD=secret"},
	})
	if err != nil {
		if runtime.IsConflict(err) {
			// name already in use
		}
		return err
	}
	return gw.StartContainer(ctx, res.ID)

# Limitations

The transport is deliberately not a general HTTP client. It does not
keep connections alive, follow redirects, negotiate TLS, or validate
chunked framing strictly. It exists to exchange one request and one
response with a trusted local engine socket and nothing more.
*/
package runtime
