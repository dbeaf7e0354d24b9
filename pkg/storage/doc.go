/*
Package storage persists deployment history in an embedded bbolt
database.

One bucket, keyed by deployment id, JSON-encoded records. The store
exists so the UI can show past deployments and their outcomes after a
restart; it is not the source of truth for container state, the engine
is. Records are listed newest first.
*/
package storage
