package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/remote"
	"github.com/julianstephens/calorix/internal/storage"
)

// loadProfile reads the cached profile and upgrades it in place when it was
// written by an older schema.
func (s *Session) loadProfile(ctx context.Context) error {
	raw, err := s.local.GetEntry(ctx, s.id.UID, constants.EntryProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	p, err := profile.Migrate(raw)
	if err != nil {
		return err
	}
	s.profile = &p
	return nil
}

// Profile returns a copy of the current profile; ok is false before onboarding.
func (s *Session) Profile() (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return models.UserProfile{}, false
	}
	return *s.profile, true
}

// CreateProfile completes onboarding.
func (s *Session) CreateProfile(ctx context.Context, o profile.Onboarding) (models.UserProfile, error) {
	p := profile.Create(s.id, o)
	s.mu.Lock()
	err := s.storeProfile(ctx, p)
	s.mu.Unlock()
	if err != nil {
		return models.UserProfile{}, err
	}
	s.tryPushProfile(ctx)
	return p, nil
}

// UpdateProfile applies fn to the current profile and saves the result.
func (s *Session) UpdateProfile(ctx context.Context, fn func(models.UserProfile) (models.UserProfile, error)) (models.UserProfile, error) {
	next, err := s.updateProfile(ctx, fn)
	if err != nil {
		return models.UserProfile{}, err
	}
	s.tryPushProfile(ctx)
	return next, nil
}

func (s *Session) updateProfile(ctx context.Context, fn func(models.UserProfile) (models.UserProfile, error)) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return models.UserProfile{}, ErrNoProfile
	}
	next, err := fn(*s.profile)
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := s.storeProfile(ctx, next); err != nil {
		return models.UserProfile{}, err
	}
	return next, nil
}

// storeProfile caches p locally and marks it dirty until a push lands.
// Callers hold s.mu.
func (s *Session) storeProfile(ctx context.Context, p models.UserProfile) error {
	if err := s.putJSON(ctx, constants.EntryProfile, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err := s.putJSON(ctx, constants.EntryProfileDirty, true); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.profile = &p
	s.profileRev++
	s.feed = nil
	return nil
}

func (s *Session) tryPushProfile(ctx context.Context) {
	if err := s.pushProfile(ctx); err != nil {
		s.log.Warn("Profile saved locally, remote update deferred", "error", err)
	}
}

// pushProfile sends the newest profile to the remote without holding s.mu,
// so logging is never stalled by the network. Pushes are serialized and the
// dirty flag is cleared only if no newer profile was stored meanwhile.
func (s *Session) pushProfile(ctx context.Context) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return nil
	}
	p, rev := *s.profile, s.profileRev
	s.mu.Unlock()

	if err := s.remote.SaveProfile(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profileRev != rev {
		return nil
	}
	return s.local.DeleteEntry(ctx, s.id.UID, constants.EntryProfileDirty)
}

func (s *Session) profileDirty(ctx context.Context) bool {
	var dirty bool
	if err := s.getJSON(ctx, constants.EntryProfileDirty, &dirty); err != nil {
		return false
	}
	return dirty
}

// syncProfile pushes a dirty profile or otherwise adopts the remote copy.
// A local edit made while the remote copy was in flight wins.
func (s *Session) syncProfile(ctx context.Context) error {
	s.mu.Lock()
	dirty := s.profile != nil && s.profileDirty(ctx)
	rev := s.profileRev
	s.mu.Unlock()

	if dirty {
		return s.pushProfile(ctx)
	}

	raw, err := s.remote.GetRawProfile(ctx, s.id.UID)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p, err := profile.Migrate(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.profileRev != rev {
		return nil
	}
	if err := s.putJSON(ctx, constants.EntryProfile, p); err != nil {
		return err
	}
	s.profile = &p
	s.profileRev++
	s.feed = nil
	return nil
}
