package deploy

import (
	"reflect"
	"testing"

	"github.com/hutchdb/hutch/pkg/types"
)

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor(types.EngineMySQL)
	if err != nil {
		t.Fatalf("ProfileFor failed: %v", err)
	}
	if p.ContainerPort != 3306 || p.DataDir != "/var/lib/mysql" {
		t.Errorf("mysql profile = %+v", p)
	}

	p, err = ProfileFor(types.EnginePostgres)
	if err != nil {
		t.Fatalf("ProfileFor failed: %v", err)
	}
	if p.ContainerPort != 5432 || p.DataDir != "/var/lib/postgresql/data" {
		t.Errorf("postgres profile = %+v", p)
	}

	if _, err := ProfileFor("mariadb"); err == nil {
		t.Error("expected error for unsupported engine")
	}
}

func TestProfileEnvMySQL(t *testing.T) {
	p, _ := ProfileFor(types.EngineMySQL)
	env := p.Env(&types.DeployRequest{
		RootPassword: "root-pw",
		Database:     "orders",
		User:         "app",
		Password:     "app-pw",
		ExtraEnv:     map[string]string{"TZ": "UTC", "A_FIRST": "1"},
	})

	want := []string{
		"MYSQL_ROOT_PASSWORD=root-pw",
		"MYSQL_DATABASE=orders",
		"MYSQL_USER=app",
		"MYSQL_PASSWORD=app-pw",
		"A_FIRST=1",
		"TZ=UTC",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("Env = %v, want %v", env, want)
	}
}

func TestProfileEnvPostgres(t *testing.T) {
	p, _ := ProfileFor(types.EnginePostgres)
	env := p.Env(&types.DeployRequest{
		RootPassword: "root-pw",
		Database:     "orders",
		User:         "app",
	})

	want := []string{
		"POSTGRES_PASSWORD=root-pw",
		"POSTGRES_DB=orders",
		"POSTGRES_USER=app",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("Env = %v, want %v", env, want)
	}
}

func TestProfileEnvMinimal(t *testing.T) {
	p, _ := ProfileFor(types.EngineMySQL)
	env := p.Env(&types.DeployRequest{RootPassword: "pw"})
	if !reflect.DeepEqual(env, []string{"MYSQL_ROOT_PASSWORD=pw"}) {
		t.Errorf("Env = %v", env)
	}
}

func TestProfileImage(t *testing.T) {
	p, _ := ProfileFor(types.EngineMySQL)
	if got := p.Image("8.0"); got != "mysql:8.0" {
		t.Errorf("Image = %q", got)
	}
	if got := p.Image(""); got != "mysql:latest" {
		t.Errorf("Image = %q", got)
	}
}

func TestProfileLabels(t *testing.T) {
	p, _ := ProfileFor(types.EnginePostgres)
	labels := p.Labels(&types.DeployRequest{Name: "orders", HostPort: 15432})

	want := map[string]string{
		types.LabelManaged:      types.ManagedMarker,
		types.LabelDatabaseType: "postgres",
		types.LabelDatabaseName: "orders",
		types.LabelDatabasePort: "15432",
	}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("Labels = %v, want %v", labels, want)
	}
}
