package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userrepo "github.com/yungbote/rolodex-backend/internal/data/repos/user"
	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/rolodex-backend/internal/pkg/errors"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type stubUserRepo struct {
	userrepo.UserRepo
	getByID func(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	calls   int
}

func (s *stubUserRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	s.calls++
	return s.getByID(dbc, userID)
}

type fakeUserCache struct {
	entries map[uuid.UUID]*types.User
	getErr  error
	sets    int
}

func newFakeUserCache() *fakeUserCache {
	return &fakeUserCache{entries: map[uuid.UUID]*types.User{}}
}

func (f *fakeUserCache) Get(_ context.Context, userID uuid.UUID) (*types.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.entries[userID]; ok {
		return u, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeUserCache) Set(_ context.Context, u *types.User) error {
	f.sets++
	f.entries[u.ID] = u
	return nil
}

func (f *fakeUserCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	delete(f.entries, userID)
	return nil
}

func testUserService(t *testing.T, repo *stubUserRepo, uc *fakeUserCache) UserService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if uc == nil {
		return NewUserService(nil, log, repo, nil, nil)
	}
	return NewUserService(nil, log, repo, nil, uc)
}

func authedCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func wantAPIStatus(t *testing.T, err error, status int) *apierr.Error {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error %v is not an api error", err)
	}
	if ae.Status != status {
		t.Fatalf("status = %d, want %d", ae.Status, status)
	}
	return ae
}

func TestGetMeRequiresIdentity(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{getByID: func(dbctx.Context, uuid.UUID) (*types.User, error) {
		t.Fatal("repo should not be consulted without an identity")
		return nil, nil
	}}
	us := testUserService(t, repo, nil)

	_, err := us.GetMe(context.Background())
	wantAPIStatus(t, err, http.StatusUnauthorized)
}

func TestGetMeServesFromCache(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	cached := &types.User{ID: userID, Email: "cached@example.com", Username: "cached"}
	uc := newFakeUserCache()
	uc.entries[userID] = cached

	repo := &stubUserRepo{getByID: func(dbctx.Context, uuid.UUID) (*types.User, error) {
		t.Fatal("repo should not be consulted on a cache hit")
		return nil, nil
	}}
	us := testUserService(t, repo, uc)

	got, err := us.GetMe(authedCtx(userID))
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if got != cached {
		t.Fatalf("got %+v, want cached user", got)
	}
}

func TestGetMeBackfillsCacheOnMiss(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	fromDB := &types.User{ID: userID, Email: "stored@example.com", Username: "stored"}
	uc := newFakeUserCache()
	repo := &stubUserRepo{getByID: func(_ dbctx.Context, id uuid.UUID) (*types.User, error) {
		if id != userID {
			t.Fatalf("looked up %s, want %s", id, userID)
		}
		return fromDB, nil
	}}
	us := testUserService(t, repo, uc)

	got, err := us.GetMe(authedCtx(userID))
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if got.Email != fromDB.Email {
		t.Fatalf("email = %q, want %q", got.Email, fromDB.Email)
	}
	if uc.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", uc.sets)
	}

	// Second read must land on the backfilled entry.
	if _, err := us.GetMe(authedCtx(userID)); err != nil {
		t.Fatalf("get me again: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("repo calls = %d, want 1", repo.calls)
	}
}

func TestGetMeToleratesCacheFailure(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	uc := newFakeUserCache()
	uc.getErr = errors.New("connection refused")
	repo := &stubUserRepo{getByID: func(dbctx.Context, uuid.UUID) (*types.User, error) {
		return &types.User{ID: userID, Email: "stored@example.com"}, nil
	}}
	us := testUserService(t, repo, uc)

	got, err := us.GetMe(authedCtx(userID))
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if got.ID != userID {
		t.Fatalf("user id = %s, want %s", got.ID, userID)
	}
}

func TestGetMeUnknownUser(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{getByID: func(dbctx.Context, uuid.UUID) (*types.User, error) {
		return nil, gorm.ErrRecordNotFound
	}}
	us := testUserService(t, repo, nil)

	_, err := us.GetMe(authedCtx(uuid.New()))
	ae := wantAPIStatus(t, err, http.StatusNotFound)
	if ae.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", ae.Code)
	}
}

func TestUploadAvatarImageRejectsEmptyBody(t *testing.T) {
	t.Parallel()
	us := testUserService(t, &stubUserRepo{}, nil)

	_, err := us.UploadAvatarImage(authedCtx(uuid.New()), nil)
	ae := wantAPIStatus(t, err, http.StatusBadRequest)
	if ae.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", ae.Code)
	}
}

func TestUploadAvatarImageRequiresIdentity(t *testing.T) {
	t.Parallel()
	us := testUserService(t, &stubUserRepo{}, nil)

	_, err := us.UploadAvatarImage(context.Background(), []byte("png"))
	wantAPIStatus(t, err, http.StatusUnauthorized)
}
