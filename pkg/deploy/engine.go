package deploy

import (
	"fmt"
	"sort"

	"github.com/hutchdb/hutch/pkg/types"
)

// Profile carries everything engine-specific about provisioning one of
// the supported database engines: the image repository, the engine's
// well-known port, where it keeps its data and which environment
// variables seed credentials and the initial database.
type Profile struct {
	Engine        types.EngineType
	Repository    string
	ContainerPort int
	DataDir       string
}

var profiles = map[types.EngineType]Profile{
	types.EngineMySQL: {
		Engine:        types.EngineMySQL,
		Repository:    "mysql",
		ContainerPort: 3306,
		DataDir:       "/var/lib/mysql",
	},
	types.EnginePostgres: {
		Engine:        types.EnginePostgres,
		Repository:    "postgres",
		ContainerPort: 5432,
		DataDir:       "/var/lib/postgresql/data",
	},
}

// ProfileFor returns the profile for an engine type.
func ProfileFor(engine types.EngineType) (Profile, error) {
	p, ok := profiles[engine]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported engine type: %q", engine)
	}
	return p, nil
}

// Env builds the engine's environment entries from a deploy request.
func (p Profile) Env(req *types.DeployRequest) []string {
	var env []string
	switch p.Engine {
	case types.EngineMySQL:
		env = append(env, "MYSQL_ROOT_PASSWORD="+req.RootPassword)
		if req.Database != "" {
			env = append(env, "MYSQL_DATABASE="+req.Database)
		}
		if req.User != "" {
			env = append(env, "MYSQL_USER="+req.User)
			env = append(env, "MYSQL_PASSWORD="+req.Password)
		}
	case types.EnginePostgres:
		env = append(env, "POSTGRES_PASSWORD="+req.RootPassword)
		if req.Database != "" {
			env = append(env, "POSTGRES_DB="+req.Database)
		}
		if req.User != "" {
			env = append(env, "POSTGRES_USER="+req.User)
		}
	}

	extra := make([]string, 0, len(req.ExtraEnv))
	for k, v := range req.ExtraEnv {
		extra = append(extra, k+"="+v)
	}
	sort.Strings(extra)
	return append(env, extra...)
}

// Image returns the repository:tag reference for a request.
func (p Profile) Image(version string) string {
	if version == "" {
		version = "latest"
	}
	return p.Repository + ":" + version
}

// Labels builds the managed-container label set stamped onto every
// container this system creates.
func (p Profile) Labels(req *types.DeployRequest) map[string]string {
	return map[string]string{
		types.LabelManaged:      types.ManagedMarker,
		types.LabelDatabaseType: string(p.Engine),
		types.LabelDatabaseName: req.Name,
		types.LabelDatabasePort: fmt.Sprintf("%d", req.HostPort),
	}
}
