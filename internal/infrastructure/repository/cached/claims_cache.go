package cached

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

// ClaimStore decorates a claim store with a TTL cache over the reference
// data the verification agent hammers during tool calls. Writes always pass
// through; only the read-only member and patient lookups are cached.
type ClaimStore struct {
	inner ports.ClaimStore
	cache *gocache.Cache
}

func NewClaimStore(inner ports.ClaimStore, ttl, cleanupInterval time.Duration) *ClaimStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &ClaimStore{
		inner: inner,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (s *ClaimStore) GetMemberByPolicyNumber(ctx context.Context, policyNumber string) (*domain.InsuredMember, error) {
	key := "member:" + policyNumber
	if hit, ok := s.cache.Get(key); ok {
		member := *hit.(*domain.InsuredMember)
		return &member, nil
	}

	member, err := s.inner.GetMemberByPolicyNumber(ctx, policyNumber)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, member)
	copied := *member
	return &copied, nil
}

func (s *ClaimStore) GetPatient(ctx context.Context, policyNumber, lastName, birthDate string) (*domain.Patient, error) {
	key := "patient:" + policyNumber + ":" + lastName + ":" + birthDate
	if hit, ok := s.cache.Get(key); ok {
		patient := *hit.(*domain.Patient)
		return &patient, nil
	}

	patient, err := s.inner.GetPatient(ctx, policyNumber, lastName, birthDate)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, patient)
	copied := *patient
	return &copied, nil
}

func (s *ClaimStore) CreateClaim(ctx context.Context, claim *domain.ClaimRecord, lines []domain.ServiceLine) (int64, error) {
	return s.inner.CreateClaim(ctx, claim, lines)
}

func (s *ClaimStore) UpdateClaimStatus(ctx context.Context, claimID int64, status domain.ClaimStatus) error {
	return s.inner.UpdateClaimStatus(ctx, claimID, status)
}
