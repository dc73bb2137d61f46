package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	computetypes "github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/shared/config"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// fakeStore is an in-memory Store with the same guarded-update semantics as
// the SQL queries: every conditional UPDATE returns pgx.ErrNoRows when its
// WHERE clause matches nothing.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*queries.User
	builds map[string]*queries.Build
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*queries.User),
		builds: make(map[string]*queries.Build),
	}
}

func (f *fakeStore) addUser(externalID, authToken string) *queries.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &queries.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		AuthToken:  authToken,
	}
	f.users[u.ID.String()] = u
	cp := *u
	return &cp
}

func (f *fakeStore) getBuild(id uuid.UUID) *queries.Build {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[id.String()]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (f *fakeStore) setBuild(b *queries.Build) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.builds[b.ID.String()] = &cp
}

func (f *fakeStore) UsersFindById(_ context.Context, id uuid.UUID) (*queries.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id.String()]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UsersFindByExternalId(_ context.Context, externalID string) (*queries.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) UsersCreate(_ context.Context, arg *queries.UsersCreateParams) (*queries.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &queries.User{
		ID:         arg.ID,
		ExternalID: arg.ExternalID,
		AuthToken:  arg.AuthToken,
	}
	f.users[u.ID.String()] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UsersUpdateAuthToken(_ context.Context, arg *queries.UsersUpdateAuthTokenParams) (*queries.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[arg.ID.String()]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.AuthToken = arg.AuthToken
	cp := *u
	return &cp, nil
}

func (f *fakeStore) BuildsCreate(_ context.Context, arg *queries.BuildsCreateParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	b := &queries.Build{
		ID:             arg.ID,
		UserID:         arg.UserID,
		Name:           arg.Name,
		Description:    arg.Description,
		IsPublic:       arg.IsPublic,
		SourceUrl:      arg.SourceUrl,
		ImageContainer: arg.ImageContainer,
		ImageObject:    arg.ImageObject,
		ImageAccount:   arg.ImageAccount,
		LogContainer:   arg.LogContainer,
		LogObject:      arg.LogObject,
		LogAccount:     arg.LogAccount,
		Project:        arg.Project,
		Networks:       arg.Networks,
		Status:         queries.BuildStatusCREATING,
		ControlToken:   arg.ControlToken,
		ManifestNonce:  arg.ManifestNonce,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.builds[b.ID.String()] = b
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsFindById(_ context.Context, id uuid.UUID) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[id.String()]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsFindByIdForUser(_ context.Context, arg *queries.BuildsFindByIdForUserParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok || b.UserID != arg.UserID || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsFindByIdAndToken(_ context.Context, arg *queries.BuildsFindByIdAndTokenParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok || b.ControlToken != arg.ControlToken || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsListByUser(_ context.Context, userID uuid.UUID) ([]*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*queries.Build
	for _, b := range f.builds {
		if b.UserID == userID && !b.DeletedAt.Valid {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) BuildsListByUserAndStatus(_ context.Context, arg *queries.BuildsListByUserAndStatusParams) ([]*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*queries.Build
	for _, b := range f.builds {
		if b.UserID == arg.UserID && b.Status == arg.Status && !b.DeletedAt.Valid {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) BuildsTransition(_ context.Context, arg *queries.BuildsTransitionParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok || b.Status != queries.BuildStatusCREATING || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	b.Status = arg.Status
	if arg.StatusDetails.Valid {
		b.StatusDetails = arg.StatusDetails
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsUpdateDetails(_ context.Context, arg *queries.BuildsUpdateDetailsParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok || b.Status != queries.BuildStatusCREATING || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	if arg.StatusDetails.Valid {
		b.StatusDetails = arg.StatusDetails
	}
	if arg.ProgressCurrent.Valid {
		b.ProgressCurrent = arg.ProgressCurrent
	}
	if arg.ProgressTotal.Valid {
		b.ProgressTotal = arg.ProgressTotal
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsConsumeNonce(_ context.Context, id uuid.UUID) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[id.String()]
	if !ok || b.NonceConsumed || b.Status != queries.BuildStatusCREATING || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	b.NonceConsumed = true
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsClaimAgentCreate(_ context.Context, id uuid.UUID) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[id.String()]
	if !ok || b.AgentRequestedAt.Valid || b.Status != queries.BuildStatusCREATING || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	b.AgentRequestedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsSetAgent(_ context.Context, arg *queries.BuildsSetAgentParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	b.AgentID = arg.AgentID
	b.AgentAlive = true
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsClearAgentAlive(_ context.Context, id uuid.UUID) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[id.String()]
	if !ok || !b.AgentAlive {
		return nil, pgx.ErrNoRows
	}
	b.AgentAlive = false
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsSoftDelete(_ context.Context, arg *queries.BuildsSoftDeleteParams) (*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.builds[arg.ID.String()]
	if !ok || b.UserID != arg.UserID || b.DeletedAt.Valid {
		return nil, pgx.ErrNoRows
	}
	b.DeletedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BuildsListStale(_ context.Context, createdAt pgtype.Timestamptz) ([]*queries.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*queries.Build
	for _, b := range f.builds {
		if b.AgentAlive && b.CreatedAt.Time.Before(createdAt.Time) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeProvider records create/delete calls and can be told to fail
type fakeProvider struct {
	mu        sync.Mutex
	created   []*computetypes.InstanceSpec
	deleted   []string
	tokens    []string
	createErr error
	failIDs   map[string]error
	nextID    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{failIDs: make(map[string]error)}
}

func (p *fakeProvider) CreateInstance(_ context.Context, authToken string, spec *computetypes.InstanceSpec) (*computetypes.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created = append(p.created, spec)
	p.tokens = append(p.tokens, authToken)
	p.nextID++
	return &computetypes.Instance{ID: fmt.Sprintf("inst-%d", p.nextID)}, nil
}

func (p *fakeProvider) DeleteInstance(_ context.Context, authToken string, instanceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failIDs[instanceID]; ok {
		return err
	}
	p.deleted = append(p.deleted, instanceID)
	p.tokens = append(p.tokens, authToken)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeProvider) {
	t.Helper()
	store := newFakeStore()
	provider := newFakeProvider()
	svc := NewService(Config{
		Manifest: config.ManifestConfig{
			PublicURL:         "https://imgforge.test",
			Window:            10 * time.Minute,
			Handoff:           "url",
			ProgressHeuristic: "content-length",
			ProgressInterval:  30 * time.Second,
		},
		AgentImageID:  "agent-image",
		AgentFlavorID: "agent-flavor",
	}, store, provider, slog.New(slog.DiscardHandler))
	return svc, store, provider
}

// createTestBuild sets up an owner and a CREATING build through the service
func createTestBuild(t *testing.T, svc *Service, store *fakeStore) (*queries.User, *queries.Build) {
	t.Helper()
	owner := store.addUser("subject-1", "owner-token")
	build, err := svc.CreateBuild(context.Background(), owner.ID, CreateBuildInput{
		Name:           "debian-12",
		SourceURL:      "https://example.com/debian.img",
		ImageContainer: "images",
		ImageObject:    "debian-12.diskdump",
	})
	if err != nil {
		t.Fatalf("failed to create test build: %v", err)
	}
	return owner, build
}
