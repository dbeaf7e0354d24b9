/*
Package volume manages host directories bound into database containers.

All directories live under a single root (default
/var/lib/hutch/volumes). Caller-supplied paths are resolved against the
root and rejected if they escape it, so the API's directory picker can
never walk the host filesystem. EnsureDir creates a data directory with
restrictive permissions and hands ownership to the uid/gid the database
image runs as; the chown is best effort since the server may not run as
root.
*/
package volume
