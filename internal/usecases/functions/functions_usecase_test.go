package functions

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
)

// fakeRepo records every write; List is unused because the usecase works
// off the snapshot passed in SyncInput.
type fakeRepo struct {
	created       []function.Spec
	updatedCode   []string
	updatedConfig []string
	deleted       []string
}

func (f *fakeRepo) List(ctx context.Context, prefix, service string) ([]function.Remote, error) {
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, spec function.Spec) (string, error) {
	f.created = append(f.created, spec)
	return fmt.Sprintf("arn:aws:lambda:eu-west-1:123456789012:function:%s", spec.RemoteName), nil
}

func (f *fakeRepo) UpdateConfiguration(ctx context.Context, spec function.Spec) error {
	f.updatedConfig = append(f.updatedConfig, spec.RemoteName)
	return nil
}

func (f *fakeRepo) UpdateCode(ctx context.Context, remoteName string, archive []byte) error {
	f.updatedCode = append(f.updatedCode, remoteName)
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, remoteName string) error {
	f.deleted = append(f.deleted, remoteName)
	return nil
}

func (f *fakeRepo) Policy(ctx context.Context, remoteName string) ([]trigger.Statement, error) {
	return nil, nil
}
func (f *fakeRepo) AddPermission(ctx context.Context, remoteName, id string, st trigger.Statement) error {
	return nil
}
func (f *fakeRepo) RemovePermission(ctx context.Context, remoteName, id string) error { return nil }

const sourceText = "export const handler = async () => ({ statusCode: 200 });\n"

func baseInput() SyncInput {
	return SyncInput{
		Prefix:  "prod",
		Service: "shop",
		Desired: []function.Desired{
			{Name: "get-user", Method: "GET", Path: "/users/*"},
		},
		Sources:     map[string]string{"get-user": sourceText},
		Environment: map[string]string{"LOG_LEVEL": "info"},
		RoleARN:     "arn:aws:iam::123456789012:role/prod-shop",
	}
}

// deployed builds the remote projection the repository would report after
// a successful sync of the base input.
func deployed(t *testing.T) function.Remote {
	t.Helper()
	_, hash, err := function.Package(sourceText)
	require.NoError(t, err)
	return function.Remote{
		ARN:           "arn:aws:lambda:eu-west-1:123456789012:function:prod-shop-get-user",
		Name:          "get-user",
		Runtime:       "nodejs20.x",
		MemorySize:    1024,
		Timeout:       30,
		Environment:   map[string]string{"LOG_LEVEL": "info"},
		Architectures: []string{function.ArchARM64},
		CodeSHA256:    hash,
	}
}

func TestSyncCreatesMissingFunction(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	remotes, err := uc.Sync(context.Background(), baseInput())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	spec := repo.created[0]
	assert.Equal(t, "prod-shop-get-user", spec.RemoteName)
	assert.Equal(t, "nodejs20.x", spec.Runtime)
	assert.Equal(t, function.ArchARM64, spec.Architecture)
	assert.Equal(t, int32(1024), spec.MemorySize)
	assert.NotEmpty(t, spec.Archive)

	require.Len(t, remotes, 1)
	assert.Equal(t, "get-user", remotes[0].Name)
	assert.Contains(t, remotes[0].ARN, "prod-shop-get-user")
}

func TestSyncIsIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	in.Current = []function.Remote{deployed(t)}

	remotes, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, repo.created)
	assert.Empty(t, repo.updatedCode)
	assert.Empty(t, repo.updatedConfig)
	assert.Empty(t, repo.deleted)
	require.Len(t, remotes, 1)
}

func TestSyncUpdatesChangedCode(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	current := deployed(t)
	current.CodeSHA256 = "stale-hash"
	in.Current = []function.Remote{current}

	_, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod-shop-get-user"}, repo.updatedCode)
	assert.Empty(t, repo.updatedConfig)
}

func TestSyncUpdatesChangedConfiguration(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	current := deployed(t)
	current.MemorySize = 512
	in.Current = []function.Remote{current}

	_, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, repo.updatedCode)
	assert.Equal(t, []string{"prod-shop-get-user"}, repo.updatedConfig)
}

func TestSyncUpdatesChangedEnvironment(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	current := deployed(t)
	current.Environment = map[string]string{"LOG_LEVEL": "debug"}
	in.Current = []function.Remote{current}

	_, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod-shop-get-user"}, repo.updatedConfig)
}

func TestSyncDeletesSurplus(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	in.Current = []function.Remote{
		deployed(t),
		{Name: "legacy", ARN: "arn:aws:lambda:eu-west-1:123456789012:function:prod-shop-legacy"},
	}

	_, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod-shop-legacy"}, repo.deleted)
}

func TestSyncProtectsSafeNames(t *testing.T) {
	repo := &fakeRepo{}
	uc := &UseCase{Repo: repo, Log: zap.NewNop()}

	in := baseInput()
	in.Safe = []string{"alert-listener"}
	in.Current = []function.Remote{
		deployed(t),
		{Name: "alert-listener"},
	}

	_, err := uc.Sync(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, repo.deleted)
}

func TestSyncRejectsMissingSource(t *testing.T) {
	uc := &UseCase{Repo: &fakeRepo{}, Log: zap.NewNop()}

	in := baseInput()
	in.Sources = map[string]string{}

	_, err := uc.Sync(context.Background(), in)
	assert.ErrorContains(t, err, "no source bundled")
}

func TestSyncRejectsUnsupportedEngine(t *testing.T) {
	uc := &UseCase{Repo: &fakeRepo{}, Log: zap.NewNop()}

	in := baseInput()
	in.Desired[0].Config.Engine = ">=16"

	_, err := uc.Sync(context.Background(), in)
	assert.ErrorContains(t, err, "unsupported engine")
}
