package types

import (
	"testing"
)

func TestContainerManaged(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   bool
	}{
		{"marker set", map[string]string{LabelManaged: ManagedMarker}, true},
		{"wrong value", map[string]string{LabelManaged: "yes"}, false},
		{"empty value", map[string]string{LabelManaged: ""}, false},
		{"missing label", map[string]string{"other": "true"}, false},
		{"nil labels", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Container{Labels: tt.labels}
			if got := c.Managed(); got != tt.want {
				t.Errorf("Managed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainerDatabaseName(t *testing.T) {
	c := Container{Labels: map[string]string{LabelDatabaseName: "orders"}}
	if got := c.DatabaseName(); got != "orders" {
		t.Errorf("DatabaseName() = %q", got)
	}
	c = Container{}
	if got := c.DatabaseName(); got != "" {
		t.Errorf("DatabaseName() on unlabeled = %q", got)
	}
}

func TestDeployRequestValidate(t *testing.T) {
	valid := func() DeployRequest {
		return DeployRequest{
			Engine:       EnginePostgres,
			Name:         "orders",
			RootPassword: "secret",
			HostPort:     15432,
		}
	}

	t.Run("valid", func(t *testing.T) {
		r := valid()
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if r.Version != "latest" {
			t.Errorf("Version = %q, want defaulted to latest", r.Version)
		}
	})

	t.Run("explicit version kept", func(t *testing.T) {
		r := valid()
		r.Version = "16"
		if err := r.Validate(); err != nil {
			t.Fatal(err)
		}
		if r.Version != "16" {
			t.Errorf("Version = %q", r.Version)
		}
	})

	tests := []struct {
		name   string
		mutate func(*DeployRequest)
	}{
		{"unknown engine", func(r *DeployRequest) { r.Engine = "mariadb" }},
		{"empty engine", func(r *DeployRequest) { r.Engine = "" }},
		{"missing name", func(r *DeployRequest) { r.Name = "" }},
		{"missing root password", func(r *DeployRequest) { r.RootPassword = "" }},
		{"zero port", func(r *DeployRequest) { r.HostPort = 0 }},
		{"negative port", func(r *DeployRequest) { r.HostPort = -1 }},
		{"port too large", func(r *DeployRequest) { r.HostPort = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
