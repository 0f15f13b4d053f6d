package service

import (
	"context"
	"testing"

	"profilegraph/internal/models"
	"profilegraph/internal/repository"
)

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	createFn      func(context.Context, *models.Profile) error
	getByIDFn     func(context.Context, uint) (*models.Profile, error)
	getByUserIDFn func(context.Context, uint) (*models.Profile, error)
	listFn        func(context.Context, repository.ListProfilesFilter) ([]models.Profile, error)
	updateFn      func(context.Context, *models.Profile) error
	deleteFn      func(context.Context, uint) error
	followFn      func(context.Context, *models.Profile, *models.Profile) error
	unfollowFn    func(context.Context, *models.Profile, *models.Profile) error
}

func (s *profileRepoStub) Create(ctx context.Context, p *models.Profile) error {
	return s.createFn(ctx, p)
}
func (s *profileRepoStub) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.getByIDFn(ctx, id)
}
func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) List(ctx context.Context, f repository.ListProfilesFilter) ([]models.Profile, error) {
	return s.listFn(ctx, f)
}
func (s *profileRepoStub) Update(ctx context.Context, p *models.Profile) error {
	return s.updateFn(ctx, p)
}
func (s *profileRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *profileRepoStub) Follow(ctx context.Context, source, target *models.Profile) error {
	return s.followFn(ctx, source, target)
}
func (s *profileRepoStub) Unfollow(ctx context.Context, source, target *models.Profile) error {
	return s.unfollowFn(ctx, source, target)
}

// graphStub serves a fixed set of profiles and fails the test on any
// follow-graph mutation.
func graphStub(t *testing.T, profiles ...models.Profile) *profileRepoStub {
	byID := make(map[uint]models.Profile)
	byUser := make(map[uint]models.Profile)
	for _, p := range profiles {
		byID[p.ID] = p
		byUser[p.UserID] = p
	}
	mutate := func(context.Context, *models.Profile, *models.Profile) error {
		t.Fatal("follow graph must not be mutated")
		return nil
	}
	return &profileRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Profile, error) {
			if p, ok := byID[id]; ok {
				return &p, nil
			}
			return nil, models.NewNotFoundError("Profile", id)
		},
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			if p, ok := byUser[userID]; ok {
				return &p, nil
			}
			return nil, models.NewNotFoundError("Profile for user", userID)
		},
		followFn:   mutate,
		unfollowFn: mutate,
	}
}
