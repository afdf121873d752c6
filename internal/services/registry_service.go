// Package services – RegistryService
//
// This file implements the identity registry: registration of plain users
// and merchants, kind-aware lookups, ranked name searches, and the read-only
// tier and performance views derived from an identity's standing.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/reputation"
	"github.com/tbourn/go-market-backend/internal/search"
)

// IdentityRepo defines the repository contract required by RegistryService.
type IdentityRepo interface {
	// CreateIdentity inserts an identity with a fresh id and default standing.
	CreateIdentity(ctx context.Context, db *gorm.DB, kind domain.ActorKind, name, qualification string, start int64) (*domain.Identity, error)

	// GetIdentity loads an identity of any kind.
	GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.Identity, error)

	// ResolveKind reports the stored kind or ActorUnknown.
	ResolveKind(ctx context.Context, db *gorm.DB, id string) (domain.ActorKind, error)

	// SearchIdentities matches display names (and optionally
	// qualifications) by case-sensitive containment, in creation order.
	SearchIdentities(ctx context.Context, db *gorm.DB, kind domain.ActorKind, needle string, alsoQualification bool) ([]domain.Identity, error)

	// ProductIDsByMerchant lists owned product ids per merchant.
	ProductIDsByMerchant(ctx context.Context, db *gorm.DB, merchantIDs []string) (map[string][]string, error)
}

// RankedUser is a user search row carrying its derived membership tier.
type RankedUser struct {
	domain.Identity
	Tier reputation.Tier `json:"tier"`
}

// Merchant is a merchant identity together with the products it owns.
type Merchant struct {
	domain.Identity
	ProductIDs   []string `json:"product_ids"`
	ProductCount int      `json:"product_count"`
}

// TierView reports an identity's membership tier and credit.
type TierView struct {
	ID          string           `json:"id"`
	Kind        domain.ActorKind `json:"kind"`
	DisplayName string           `json:"display_name"`
	Tier        reputation.Tier  `json:"tier"`
	CreditScore int              `json:"credit_score"`
}

// PerformanceView is a merchant's view of a plain user's transaction record.
type PerformanceView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	reputation.Performance
}

// RegistryService owns identity registration and lookup.
type RegistryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the identity repository used by this service.
	Repo IdentityRepo
	// IDStart is the first numeric id a fresh sequence issues.
	IDStart int64
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(db *gorm.DB, r IdentityRepo, idStart int64) *RegistryService {
	return &RegistryService{DB: db, Repo: r, IDStart: idStart}
}

// RegisterUser creates a plain user with the default standing.
func (s *RegistryService) RegisterUser(ctx context.Context, name string) (*domain.Identity, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "RegisterUser")
	defer span.End()

	name = search.CleanName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.Repo.CreateIdentity(ctx, s.DB, domain.ActorUser, name, "", s.IDStart)
}

// CreateMerchant creates a merchant with the default standing. The
// qualification is opaque and may be empty.
func (s *RegistryService) CreateMerchant(ctx context.Context, name, qualification string) (*Merchant, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "CreateMerchant")
	defer span.End()

	name = search.CleanName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ident, err := s.Repo.CreateIdentity(ctx, s.DB, domain.ActorMerchant, name, search.CleanName(qualification), s.IDStart)
	if err != nil {
		return nil, err
	}
	return &Merchant{Identity: *ident, ProductIDs: []string{}}, nil
}

// FindUser returns the plain user with id. A merchant id yields
// ErrActorNotUser and an unknown id ErrUserNotFound.
func (s *RegistryService) FindUser(ctx context.Context, id string) (*domain.Identity, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "FindUser",
		trace.WithAttributes(attribute.String("identity.id", id)))
	defer span.End()

	return s.findKind(ctx, s.DB, id, domain.ActorUser)
}

// FindMerchant returns the merchant with id and its owned product ids.
// A plain user id yields ErrActorNotMerchant and an unknown id
// ErrMerchantNotFound.
func (s *RegistryService) FindMerchant(ctx context.Context, id string) (*Merchant, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "FindMerchant",
		trace.WithAttributes(attribute.String("identity.id", id)))
	defer span.End()

	ident, err := s.findKind(ctx, s.DB, id, domain.ActorMerchant)
	if err != nil {
		return nil, err
	}
	out, err := s.withProducts(ctx, []domain.Identity{*ident})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ResolveActorKind reports whether id names a user, a merchant, or nothing.
func (s *RegistryService) ResolveActorKind(ctx context.Context, id string) (domain.ActorKind, error) {
	return s.Repo.ResolveKind(ctx, s.DB, id)
}

// SearchUsers returns plain users whose display name contains substring,
// ranked by live credit score.
func (s *RegistryService) SearchUsers(ctx context.Context, substring string) ([]RankedUser, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "SearchUsers")
	defer span.End()

	found, err := s.Repo.SearchIdentities(ctx, s.DB, domain.ActorUser, search.Normalize(substring), false)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(found)))

	ranked := search.Rank(found, identityCredit)
	out := make([]RankedUser, len(ranked))
	for i, u := range ranked {
		out[i] = RankedUser{Identity: u, Tier: u.Tier()}
	}
	return out, nil
}

// SearchMerchants returns merchants whose display name or qualification
// contains keyword, ranked by live credit score.
func (s *RegistryService) SearchMerchants(ctx context.Context, keyword string) ([]Merchant, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "SearchMerchants")
	defer span.End()

	found, err := s.Repo.SearchIdentities(ctx, s.DB, domain.ActorMerchant, search.Normalize(keyword), true)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(found)))
	return s.withProducts(ctx, search.Rank(found, identityCredit))
}

// ShowTier reports the membership tier of any identity.
func (s *RegistryService) ShowTier(ctx context.Context, id string) (*TierView, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "ShowTier",
		trace.WithAttributes(attribute.String("identity.id", id)))
	defer span.End()

	ident, err := s.Repo.GetIdentity(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &TierView{
		ID:          ident.ID,
		Kind:        ident.Kind,
		DisplayName: ident.DisplayName,
		Tier:        ident.Tier(),
		CreditScore: ident.CreditScore,
	}, nil
}

// Performance lets a merchant view a plain user's transaction record. Both
// ids must resolve to the expected kind.
func (s *RegistryService) Performance(ctx context.Context, merchantID, userID string) (*PerformanceView, error) {
	ctx, span := otel.Tracer("services/RegistryService").Start(ctx, "Performance",
		trace.WithAttributes(
			attribute.String("merchant.id", merchantID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	if _, err := s.findKind(ctx, s.DB, merchantID, domain.ActorMerchant); err != nil {
		return nil, err
	}
	user, err := s.findKind(ctx, s.DB, userID, domain.ActorUser)
	if err != nil {
		return nil, err
	}
	return &PerformanceView{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Performance: user.Performance(),
	}, nil
}

// findKind loads id and checks its kind, mapping each mismatch to the
// specific error for want.
func (s *RegistryService) findKind(ctx context.Context, db *gorm.DB, id string, want domain.ActorKind) (*domain.Identity, error) {
	ident, err := s.Repo.GetIdentity(ctx, db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if want == domain.ActorMerchant {
			return nil, ErrMerchantNotFound
		}
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if ident.Kind != want {
		if want == domain.ActorMerchant {
			return nil, ErrActorNotMerchant
		}
		return nil, ErrActorNotUser
	}
	return ident, nil
}

func (s *RegistryService) withProducts(ctx context.Context, merchants []domain.Identity) ([]Merchant, error) {
	ids := make([]string, len(merchants))
	for i, m := range merchants {
		ids[i] = m.ID
	}
	owned, err := s.Repo.ProductIDsByMerchant(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Merchant, len(merchants))
	for i, m := range merchants {
		pids := owned[m.ID]
		if pids == nil {
			pids = []string{}
		}
		out[i] = Merchant{Identity: m, ProductIDs: pids, ProductCount: len(pids)}
	}
	return out, nil
}

func identityCredit(i domain.Identity) int { return i.CreditScore }
