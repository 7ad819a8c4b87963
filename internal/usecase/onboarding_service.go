package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cryptodash/configs"
	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// OnboardingService validates the questionnaire, resolves a free-text asset
// and submits the result
type OnboardingService struct {
	api      domain.OnboardingAPI
	search   domain.CoinSearcher
	notifier domain.Notifier
	policy   string

	mu    sync.Mutex
	cache map[string]*domain.CoinMatch
}

// NewOnboardingService creates a new OnboardingService. policy says what to do
// with an unresolved free-text asset: configs.OtherPolicyRequire, Raw or Omit.
func NewOnboardingService(api domain.OnboardingAPI, search domain.CoinSearcher, notifier domain.Notifier, policy string) *OnboardingService {
	if policy == "" {
		policy = configs.OtherPolicyOmit
	}
	return &OnboardingService{
		api:      api,
		search:   search,
		notifier: notifier,
		policy:   policy,
		cache:    make(map[string]*domain.CoinMatch),
	}
}

// ResolveAsset returns the best coin match for query, nil when there is none.
// Lookups that reached the service are cached for the session; failures are not.
func (s *OnboardingService) ResolveAsset(ctx context.Context, query string) (*domain.CoinMatch, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	cacheKey := strings.ToLower(q)

	s.mu.Lock()
	match, ok := s.cache[cacheKey]
	s.mu.Unlock()
	if ok {
		return match, nil
	}

	coins, err := s.search.SearchCoins(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", q, err)
	}
	if len(coins) > 0 && coins[0].ID != "" {
		best := coins[0]
		match = &best
	}

	s.mu.Lock()
	s.cache[cacheKey] = match
	s.mu.Unlock()
	return match, nil
}

// Validate checks at least one asset, exactly one known investor type and at least one known content type
func (s *OnboardingService) Validate(p domain.OnboardingProfile) error {
	hasAsset := len(p.CryptoAssets) > 0 || strings.TrimSpace(p.OtherAsset) != ""
	if !hasAsset || !domain.HasOption(domain.InvestorTypeOptions, p.InvestorType) || len(p.ContentTypes) == 0 {
		return domain.ErrInvalidProfile
	}
	for _, c := range p.ContentTypes {
		if !domain.HasOption(domain.ContentTypeOptions, c) {
			return fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidProfile, c)
		}
	}
	return nil
}

// Submit validates, resolves the free-text asset and posts the profile
func (s *OnboardingService) Submit(ctx context.Context, p domain.OnboardingProfile) (*domain.OnboardingResponse, error) {
	log := observability.LoggerFromContext(ctx)

	if err := s.Validate(p); err != nil {
		s.notify(domain.UserMessage(err, "Invalid selection"), domain.ToastError)
		return nil, err
	}

	assets := dedupe(p.CryptoAssets)
	if other := strings.TrimSpace(p.OtherAsset); other != "" {
		match, err := s.ResolveAsset(ctx, other)
		if err != nil {
			log.Warn("[ONBOARDING] Coin search failed", "query", other, "error", err)
		}
		switch {
		case match != nil:
			assets = appendUnique(assets, match.ID)
		case s.policy == configs.OtherPolicyRaw:
			assets = appendUnique(assets, other)
		case s.policy == configs.OtherPolicyRequire || len(assets) == 0:
			s.notify(domain.UserMessage(domain.ErrCoinNotFound, ""), domain.ToastError)
			return nil, domain.ErrCoinNotFound
		default:
			s.notify(fmt.Sprintf("Could not match %q, skipped", other), domain.ToastWarning)
		}
	}

	resp, err := s.api.SubmitOnboarding(ctx, domain.OnboardingRequest{
		CryptoAssets: assets,
		InvestorType: p.InvestorType,
		ContentType:  dedupe(p.ContentTypes),
	})
	if err != nil {
		s.notify(domain.UserMessage(err, "Failed to save onboarding"), domain.ToastError)
		return nil, err
	}

	for _, w := range resp.Warnings {
		s.notify(w, domain.ToastInfo)
	}

	if !resp.Saved {
		msg := resp.Message
		if msg == "" {
			msg = domain.UserMessage(domain.ErrCoinNotFound, "")
		}
		s.notify(msg, domain.ToastError)
		return resp, &domain.RejectedError{Message: msg}
	}

	log.Info("[ONBOARDING] Saved", "assets", len(assets), "investor_type", p.InvestorType)
	s.notify("Saved. Redirecting to dashboard…", domain.ToastSuccess)
	return resp, nil
}

func (s *OnboardingService) notify(message string, level domain.ToastLevel) {
	if s.notifier != nil {
		s.notifier.Push(message, level)
	}
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = appendUnique(out, strings.TrimSpace(v))
	}
	return out
}

func appendUnique(values []string, v string) []string {
	if v == "" {
		return values
	}
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
