package deploy

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hutchdb/hutch/pkg/log"
	"github.com/hutchdb/hutch/pkg/runtime"
	"github.com/hutchdb/hutch/pkg/types"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
}

// fakeGateway scripts the orchestrator's runtime interactions.
type fakeGateway struct {
	pullErr   error
	createErr error
	startErr  error

	pulledImage string
	pulledTag   string
	createdSpec *runtime.CreateSpec
	started     []string
}

func (f *fakeGateway) Endpoint() runtime.Endpoint {
	return runtime.Endpoint{SocketPath: "/run/podman/podman.sock", Dialect: types.DialectPodman}
}

func (f *fakeGateway) PullImage(ctx context.Context, image, tag string) error {
	f.pulledImage, f.pulledTag = image, tag
	return f.pullErr
}

func (f *fakeGateway) CreateContainer(ctx context.Context, spec runtime.CreateSpec) (runtime.CreateResult, error) {
	f.createdSpec = &spec
	if f.createErr != nil {
		return runtime.CreateResult{}, f.createErr
	}
	return runtime.CreateResult{ID: "cafebabe", Warnings: []string{"low disk space"}}, nil
}

func (f *fakeGateway) StartContainer(ctx context.Context, id string) error {
	f.started = append(f.started, id)
	return f.startErr
}

// fakeStorage counts EnsureDir calls and reports whether the directory
// was created.
type fakeStorage struct {
	resolveErr error
	ensureErr  error
	created    bool
	ensured    int
}

func (f *fakeStorage) Resolve(path string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return "/var/lib/hutch/volumes/" + path, nil
}

func (f *fakeStorage) EnsureDir(path string, mode os.FileMode, uid, gid int) (bool, error) {
	f.ensured++
	return f.created, f.ensureErr
}

type fakeHistory struct {
	saved []*types.DeploymentRecord
}

func (f *fakeHistory) SaveDeployment(record *types.DeploymentRecord) error {
	f.saved = append(f.saved, record)
	return nil
}

type fixedIdentity struct {
	identity types.ImageIdentity
	err      error
}

func (f fixedIdentity) Discover(ctx context.Context, image string) (types.ImageIdentity, error) {
	return f.identity, f.err
}

func validRequest() *types.DeployRequest {
	return &types.DeployRequest{
		Engine:       types.EngineMySQL,
		Name:         "orders",
		RootPassword: "secret",
		HostPort:     13306,
		DataPath:     "orders",
	}
}

func TestDeploySuccess(t *testing.T) {
	gw := &fakeGateway{}
	st := &fakeStorage{created: true}
	hist := &fakeHistory{}
	orch := NewOrchestrator(gw, fixedIdentity{identity: types.ImageIdentity{UID: 999, GID: 999}}, st, hist)

	record, err := orch.Deploy(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if record.Stage != types.StageDone {
		t.Errorf("Stage = %q, want done", record.Stage)
	}
	if record.Failed {
		t.Error("record marked failed")
	}
	if record.ContainerID != "cafebabe" {
		t.Errorf("ContainerID = %q", record.ContainerID)
	}
	if record.Image != "mysql:latest" {
		t.Errorf("Image = %q", record.Image)
	}

	if gw.pulledImage != "mysql" || gw.pulledTag != "latest" {
		t.Errorf("pulled %s:%s", gw.pulledImage, gw.pulledTag)
	}
	if len(gw.started) != 1 || gw.started[0] != "cafebabe" {
		t.Errorf("started = %v", gw.started)
	}

	spec := gw.createdSpec
	if spec == nil {
		t.Fatal("no create spec sent")
	}
	if spec.Name != "orders" {
		t.Errorf("spec.Name = %q", spec.Name)
	}
	if spec.Labels[types.LabelManaged] != types.ManagedMarker {
		t.Errorf("Labels = %v, want managed marker", spec.Labels)
	}
	if spec.Labels[types.LabelDatabaseType] != "mysql" || spec.Labels[types.LabelDatabaseName] != "orders" {
		t.Errorf("Labels = %v", spec.Labels)
	}
	if spec.Port == nil || spec.Port.ContainerPort != 3306 || spec.Port.HostPort != 13306 {
		t.Errorf("Port = %+v", spec.Port)
	}
	if len(spec.Binds) != 1 || spec.Binds[0] != "/var/lib/hutch/volumes/orders:/var/lib/mysql" {
		t.Errorf("Binds = %v", spec.Binds)
	}

	if st.ensured != 1 {
		t.Errorf("EnsureDir called %d times, want 1", st.ensured)
	}
	if len(hist.saved) != 1 || hist.saved[0].ID != record.ID {
		t.Errorf("history = %+v", hist.saved)
	}
}

func TestDeployExistingDataDir(t *testing.T) {
	// An existing directory is success: the bind still happens, no
	// creation is reported.
	gw := &fakeGateway{}
	st := &fakeStorage{created: false}
	orch := NewOrchestrator(gw, fixedIdentity{}, st, nil)

	if _, err := orch.Deploy(context.Background(), validRequest()); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if st.ensured != 1 {
		t.Errorf("EnsureDir called %d times, want 1", st.ensured)
	}
	if len(gw.createdSpec.Binds) != 1 {
		t.Errorf("Binds = %v", gw.createdSpec.Binds)
	}
}

func TestDeployWithoutDataPathSkipsStorage(t *testing.T) {
	gw := &fakeGateway{}
	st := &fakeStorage{}
	orch := NewOrchestrator(gw, fixedIdentity{}, st, nil)

	req := validRequest()
	req.DataPath = ""
	if _, err := orch.Deploy(context.Background(), req); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if st.ensured != 0 {
		t.Errorf("EnsureDir called %d times, want 0", st.ensured)
	}
	if len(gw.createdSpec.Binds) != 0 {
		t.Errorf("Binds = %v, want none", gw.createdSpec.Binds)
	}
}

func TestDeployPullFailure(t *testing.T) {
	gw := &fakeGateway{pullErr: errors.New("registry unreachable")}
	hist := &fakeHistory{}
	orch := NewOrchestrator(gw, fixedIdentity{}, &fakeStorage{}, hist)

	record, err := orch.Deploy(context.Background(), validRequest())

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StageError", err)
	}
	if se.Stage != types.StagePull {
		t.Errorf("Stage = %q, want pull", se.Stage)
	}
	if se.ContainerID != "" {
		t.Error("pull failure must not carry a container id")
	}
	if !record.Failed || record.Stage != types.StagePull {
		t.Errorf("record = %+v", record)
	}
	// Failed runs are recorded too.
	if len(hist.saved) != 1 {
		t.Errorf("history = %d records, want 1", len(hist.saved))
	}
}

func TestDeployStorageFailure(t *testing.T) {
	gw := &fakeGateway{}
	st := &fakeStorage{ensureErr: errors.New("permission denied")}
	orch := NewOrchestrator(gw, fixedIdentity{}, st, nil)

	_, err := orch.Deploy(context.Background(), validRequest())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != types.StageStorage {
		t.Fatalf("err = %v, want storage StageError", err)
	}
	if gw.createdSpec != nil {
		t.Error("create must not run after a storage failure")
	}
}

func TestDeployCreateFailure(t *testing.T) {
	gw := &fakeGateway{createErr: &runtime.StatusError{Code: 409, Body: "name in use"}}
	orch := NewOrchestrator(gw, fixedIdentity{}, &fakeStorage{}, nil)

	record, err := orch.Deploy(context.Background(), validRequest())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != types.StageCreate {
		t.Fatalf("err = %v, want create StageError", err)
	}
	if se.ContainerID != "" {
		t.Error("create failure must not carry a container id")
	}
	if !runtime.IsConflict(err) {
		t.Error("conflict must remain visible through the stage error")
	}
	if record.ContainerID != "" {
		t.Errorf("record.ContainerID = %q", record.ContainerID)
	}
	if len(gw.started) != 0 {
		t.Error("start must not run after a create failure")
	}
}

func TestDeployStartFailureCarriesContainerID(t *testing.T) {
	gw := &fakeGateway{startErr: errors.New("oom")}
	orch := NewOrchestrator(gw, fixedIdentity{}, &fakeStorage{}, nil)

	record, err := orch.Deploy(context.Background(), validRequest())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != types.StageStart {
		t.Fatalf("err = %v, want start StageError", err)
	}
	if se.ContainerID != "cafebabe" {
		t.Errorf("ContainerID = %q, want the created container", se.ContainerID)
	}
	if record.ContainerID != "cafebabe" {
		t.Errorf("record.ContainerID = %q", record.ContainerID)
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDeployIdentityFallback(t *testing.T) {
	// Identity discovery failures degrade to the default identity
	// instead of failing the run.
	gw := &fakeGateway{}
	orch := NewOrchestrator(gw, fixedIdentity{err: errors.New("id: command mangled")}, &fakeStorage{}, nil)

	record, err := orch.Deploy(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if record.Stage != types.StageDone {
		t.Errorf("Stage = %q", record.Stage)
	}
}

func TestDeployInvalidRequest(t *testing.T) {
	orch := NewOrchestrator(&fakeGateway{}, fixedIdentity{}, &fakeStorage{}, nil)

	req := validRequest()
	req.RootPassword = ""
	_, err := orch.Deploy(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var se *StageError
	if errors.As(err, &se) {
		t.Error("validation failures are not stage failures")
	}
}

func TestDeployRecordOmitsCredentials(t *testing.T) {
	hist := &fakeHistory{}
	orch := NewOrchestrator(&fakeGateway{}, fixedIdentity{}, &fakeStorage{}, hist)

	req := validRequest()
	req.RootPassword = "super-secret-root"
	req.Password = "super-secret-user"
	if _, err := orch.Deploy(context.Background(), req); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	record := hist.saved[0]
	for _, field := range []string{record.Name, record.Image, record.Error, string(record.Stage)} {
		if strings.Contains(field, "super-secret") {
			t.Errorf("credential leaked into record field %q", field)
		}
	}
}
