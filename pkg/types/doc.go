/*
Package types defines the core data structures used throughout Hutch.

This package contains the fundamental types that represent Hutch's domain
model: runtime dialects, normalized container records, deployment requests
and their staged outcomes, and the managed-container label set. These types
are used by all other packages for gateway calls, orchestration logic and
API responses.

# Core Types

Runtime:
  - Dialect: Docker Engine or Podman libpod socket shape
  - Container: Normalized container record (merged from dialect casings)
  - ContainerState: Running, stopped, paused, restarting, unknown
  - StatsSnapshot: Normalized resource usage reading

Deployment:
  - DeployRequest: One database container to provision (validated, consumed
    once, never persisted)
  - DeploymentStage: Pull, discover, storage, create, start, done
  - DeploymentRecord: Persisted, credential-free outcome of one run
  - EngineType: MySQL or PostgreSQL
  - ImageIdentity: Discovered uid/gid/username of a database image

Ownership:
  - Label keys under the "hutch." namespace mark containers created by this
    system. Managed() is strict: only the literal marker value counts, so
    unrelated containers sharing the runtime are never misclassified.

All types are designed to be:
  - Serializable (JSON)
  - Safe to default (unknown runtime fields degrade, they do not fail)
  - Self-documenting (clear field names and comments)
*/
package types
