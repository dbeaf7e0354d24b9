/*
Package deploy turns a database request into a running container.

The orchestrator walks a fixed sequence of stages and records how far
it got. A failure at any stage surfaces as a StageError naming the
stage, so callers can tell "image could not be pulled" apart from
"container was created but refused to start".

# Stages

	pull ──► discover ──► storage ──► create ──► start ──► done

	pull      fetch the database image through the runtime gateway
	discover  probe the image for the uid/gid its entrypoint runs as
	storage   create the host data directory, owned by that identity
	create    build the container spec and create the container
	start     start it

The discover and storage stages degrade rather than fail: a missing
engine CLI or unreadable id output falls back to uid/gid 1000, and a
chown that the process lacks privileges for is logged and skipped. The
pull, create, and start stages are hard failures.

# Profiles

Each supported database engine has a Profile describing its image
repository, the port the server listens on inside the container, and
the data directory to bind the host volume over. Profiles also shape
the environment: MySQL gets MYSQL_ROOT_PASSWORD and friends, Postgres
gets POSTGRES_PASSWORD and friends.

# Records

Every run produces a DeploymentRecord persisted through the
HistoryStore, whether the run succeeded or not. Records never contain
credentials; passwords exist only in the environment of the created
container.

# Usage

	orch := deploy.NewOrchestrator(gateway, discoverer, volumes, store)
	record, err := orch.Deploy(ctx, &types.DeployRequest{
		Engine:       types.EngineMySQL,
		Name:         "orders",
		RootPassword: "secret",
		HostPort:     13306,
	})
	if err != nil {
		var se *deploy.StageError
		if errors.As(err, &se) && se.Stage == types.StageStart {
			// container exists, offer a retry-start
		}
		return err
	}
*/
package deploy
