/*
Package api exposes the HTTP/JSON surface consumed by the browser UI.

Routes live under /api/v1 and map almost one-to-one onto the runtime
gateway and the deployment orchestrator:

	GET    /api/v1/containers              list (all=, managed=)
	GET    /api/v1/containers/:id          inspect
	POST   /api/v1/containers/:id/start    lifecycle
	POST   /api/v1/containers/:id/stop
	POST   /api/v1/containers/:id/restart
	DELETE /api/v1/containers/:id          remove (force=)
	GET    /api/v1/containers/:id/logs     tail= lines
	GET    /api/v1/containers/:id/stats    one-shot stats
	POST   /api/v1/deployments             provision a database
	GET    /api/v1/deployments             history
	GET    /api/v1/deployments/:id
	GET    /api/v1/dirs                    path= directory picker
	GET    /api/v1/info                    engine info
	GET    /healthz
	GET    /metrics                        Prometheus exposition

Error mapping: engine 404/409 pass through, other engine statuses and
transport or decode failures become 502, deadline expiry becomes 504.
A failed deployment response still carries the partial record plus the
failed stage and, for start failures, the container id.
*/
package api
