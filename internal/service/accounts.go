package service

import (
	"context"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AccountService resolves the set of profiles a user can act as and tracks
// which one is currently selected.
type AccountService struct {
	accounts port.AccountStore
	catalog  port.CatalogStore
	logger   *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(accounts port.AccountStore, catalog port.CatalogStore, logger *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, catalog: catalog, logger: logger}
}

// ResolveAccounts returns every profile the user can act as, materializing
// missing ones on the way: the personal profile is created lazily on first
// resolution, and ONG/clinic profiles are derived from organizations the
// user owns. It never fails; when the store is unreachable the result
// degrades to a lone unsaved personal profile so the app can still render.
func (s *AccountService) ResolveAccounts(ctx context.Context, user domain.AuthUser) *domain.AccountResolution {
	ctx, span := tracer.Start(ctx, "AccountService.ResolveAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", user.ID))

	fallback := s.emptyResolution(user)

	profiles, err := s.accounts.ListProfiles(ctx, user.ID)
	if err != nil {
		s.logger.Warn("accounts: profile listing failed, degrading to empty state",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return fallback
	}

	if !hasProfile(profiles, domain.ProfileTypeUser, user.ID) {
		personal, err := s.accounts.UpsertProfile(ctx, &domain.AccountProfile{
			UserID:      user.ID,
			Type:        domain.ProfileTypeUser,
			ProfileID:   user.ID,
			ProfileName: displayName(user),
			IsActive:    true,
		})
		if err != nil {
			s.logger.Warn("accounts: personal profile creation failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			return fallback
		}
		profiles = append(profiles, *personal)
	}

	profiles = s.materializeOrgProfiles(ctx, user, profiles)

	resolution := &domain.AccountResolution{Profiles: profiles}
	resolution.Current = s.selectCurrent(ctx, user.ID, profiles)
	return resolution
}

// materializeOrgProfiles fetches the user's ONGs and clinics in parallel and
// upserts a profile for each one not yet represented. Lookup failures skip
// that branch; the upsert is idempotent so retries converge.
func (s *AccountService) materializeOrgProfiles(ctx context.Context, user domain.AuthUser, profiles []domain.AccountProfile) []domain.AccountProfile {
	var ongs []domain.ONG
	var clinics []domain.Clinic

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ongs, err = s.catalog.ListONGsByOwner(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		clinics, err = s.catalog.ListClinicsByOwner(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("accounts: organization lookup failed, keeping known profiles",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return profiles
	}

	for _, ong := range ongs {
		if hasProfile(profiles, domain.ProfileTypeONG, ong.ID) {
			continue
		}
		p, err := s.accounts.UpsertProfile(ctx, &domain.AccountProfile{
			UserID:       user.ID,
			Type:         domain.ProfileTypeONG,
			ProfileID:    ong.ID,
			ProfileName:  ong.Name,
			ProfileImage: ong.LogoURL,
			IsActive:     true,
		})
		if err != nil {
			s.logger.Warn("accounts: ong profile upsert failed",
				zap.String("ong_id", ong.ID),
				zap.Error(err),
			)
			continue
		}
		profiles = append(profiles, *p)
	}

	for _, clinic := range clinics {
		if hasProfile(profiles, domain.ProfileTypeClinic, clinic.ID) {
			continue
		}
		p, err := s.accounts.UpsertProfile(ctx, &domain.AccountProfile{
			UserID:       user.ID,
			Type:         domain.ProfileTypeClinic,
			ProfileID:    clinic.ID,
			ProfileName:  clinic.Name,
			ProfileImage: clinic.LogoURL,
			IsActive:     true,
		})
		if err != nil {
			s.logger.Warn("accounts: clinic profile upsert failed",
				zap.String("clinic_id", clinic.ID),
				zap.Error(err),
			)
			continue
		}
		profiles = append(profiles, *p)
	}

	return profiles
}

// selectCurrent applies the selection priority: the saved preference when it
// still points at a live profile, then the personal profile, then the first
// profile in creation order.
func (s *AccountService) selectCurrent(ctx context.Context, userID string, profiles []domain.AccountProfile) *domain.AccountProfile {
	if len(profiles) == 0 {
		return nil
	}

	pref, err := s.accounts.GetPreference(ctx, userID)
	if err != nil {
		s.logger.Warn("accounts: preference lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	if pref != nil {
		for i := range profiles {
			if profiles[i].ProfileID == pref.SelectedProfileID {
				return &profiles[i]
			}
		}
	}

	for i := range profiles {
		if profiles[i].Type == domain.ProfileTypeUser {
			return &profiles[i]
		}
	}
	return &profiles[0]
}

// SelectProfile persists the user's choice of active profile. The profile
// must belong to the user.
func (s *AccountService) SelectProfile(ctx context.Context, userID, profileID string) error {
	ctx, span := tracer.Start(ctx, "AccountService.SelectProfile")
	defer span.End()

	profiles, err := s.accounts.ListProfiles(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for _, p := range profiles {
		if p.ProfileID == profileID {
			found = true
			break
		}
	}
	if !found {
		return &domain.ErrNotFound{Resource: "profile", ID: profileID}
	}
	return s.accounts.SavePreference(ctx, userID, profileID)
}

// DeactivateAccount soft-deletes every profile of the user. Callers must
// have reauthenticated first.
func (s *AccountService) DeactivateAccount(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "AccountService.DeactivateAccount")
	defer span.End()
	return s.accounts.DeactivateProfiles(ctx, userID)
}

// emptyResolution is what the app gets when nothing could be read or
// written: a single unsaved personal profile.
func (s *AccountService) emptyResolution(user domain.AuthUser) *domain.AccountResolution {
	personal := domain.AccountProfile{
		UserID:      user.ID,
		Type:        domain.ProfileTypeUser,
		ProfileID:   user.ID,
		ProfileName: displayName(user),
		IsActive:    true,
	}
	return &domain.AccountResolution{
		Profiles: []domain.AccountProfile{personal},
		Current:  &personal,
	}
}

func hasProfile(profiles []domain.AccountProfile, typ, profileID string) bool {
	for _, p := range profiles {
		if p.Type == typ && p.ProfileID == profileID {
			return true
		}
	}
	return false
}

// displayName falls back from the profile name to the email and finally
// to a generic label, so a profile never renders nameless.
func displayName(user domain.AuthUser) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.Email != "" {
		return user.Email
	}
	return "Usuário"
}
