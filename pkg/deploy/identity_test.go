package deploy

import (
	"testing"

	"github.com/hutchdb/hutch/pkg/types"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    types.ImageIdentity
		wantErr bool
	}{
		{
			name:   "mysql image",
			output: "uid=999(mysql) gid=999(mysql) groups=999(mysql)\n",
			want:   types.ImageIdentity{UID: 999, GID: 999, Username: "mysql"},
		},
		{
			name:   "postgres image",
			output: "uid=70(postgres) gid=70(postgres) groups=70(postgres)",
			want:   types.ImageIdentity{UID: 70, GID: 70, Username: "postgres"},
		},
		{
			name:   "no username",
			output: "uid=1001 gid=1001 groups=1001",
			want:   types.ImageIdentity{UID: 1001, GID: 1001},
		},
		{
			name:   "root",
			output: "uid=0(root) gid=0(root) groups=0(root),1(bin)",
			want:   types.ImageIdentity{UID: 0, GID: 0, Username: "root"},
		},
		{
			name:   "leading pull progress noise",
			output: "Trying to pull docker.io/library/mysql...\nuid=999(mysql) gid=999(mysql)\n",
			want:   types.ImageIdentity{UID: 999, GID: 999, Username: "mysql"},
		},
		{
			name:    "garbage",
			output:  "id: command not found",
			wantErr: true,
		},
		{
			name:    "empty",
			output:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIdentity(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIdentity failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseIdentity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewCLIDiscoverer(t *testing.T) {
	if d := NewCLIDiscoverer(types.DialectDocker); d.Binary != "docker" {
		t.Errorf("Binary = %q", d.Binary)
	}
	if d := NewCLIDiscoverer(types.DialectPodman); d.Binary != "podman" {
		t.Errorf("Binary = %q", d.Binary)
	}
}

func TestDefaultIdentity(t *testing.T) {
	if DefaultIdentity.UID != 1000 || DefaultIdentity.GID != 1000 {
		t.Errorf("DefaultIdentity = %+v", DefaultIdentity)
	}
}
