package policystore

import (
	"context"
	"sync"

	"github.com/haven-social/sentinel/automod/platform"
)

// MemPolicyStore keeps policies in process memory. Useful for tests; not
// durable.
type MemPolicyStore struct {
	mu       sync.Mutex
	risk     map[string]RiskPolicy
	spam     map[string]SpamPolicy
	lockdown map[string]LockdownPolicy
	panics   map[string]PanicState
	settings map[string]TenantSettings
}

var _ PolicyStore = (*MemPolicyStore)(nil)

func NewMemPolicyStore() *MemPolicyStore {
	return &MemPolicyStore{
		risk:     make(map[string]RiskPolicy),
		spam:     make(map[string]SpamPolicy),
		lockdown: make(map[string]LockdownPolicy),
		panics:   make(map[string]PanicState),
		settings: make(map[string]TenantSettings),
	}
}

func (s *MemPolicyStore) GetRisk(ctx context.Context, tenantID string) (RiskPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.risk[tenantID]; ok {
		return v, nil
	}
	return DefaultRiskPolicy, nil
}

func (s *MemPolicyStore) SetRisk(ctx context.Context, tenantID string, patch RiskPolicyPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.risk[tenantID]
	if !ok {
		cur = DefaultRiskPolicy
	}
	s.risk[tenantID] = patch.apply(cur)
	return nil
}

func (s *MemPolicyStore) GetSpam(ctx context.Context, tenantID string) (SpamPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.spam[tenantID]; ok {
		return v, nil
	}
	return DefaultSpamPolicy, nil
}

func (s *MemPolicyStore) SetSpam(ctx context.Context, tenantID string, patch SpamPolicyPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.spam[tenantID]
	if !ok {
		cur = DefaultSpamPolicy
	}
	s.spam[tenantID] = patch.apply(cur)
	return nil
}

func (s *MemPolicyStore) GetLockdown(ctx context.Context, tenantID string) (LockdownPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.lockdown[tenantID]; ok {
		return v, nil
	}
	return DefaultLockdownPolicy, nil
}

func (s *MemPolicyStore) SetLockdown(ctx context.Context, tenantID string, patch LockdownPolicyPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.lockdown[tenantID]
	if !ok {
		cur = DefaultLockdownPolicy
	}
	s.lockdown[tenantID] = patch.apply(cur)
	return nil
}

func (s *MemPolicyStore) GetPanic(ctx context.Context, tenantID string) (PanicState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.panics[tenantID]; ok {
		return v, nil
	}
	return DefaultPanicState, nil
}

func (s *MemPolicyStore) SetPanic(ctx context.Context, tenantID string, enabled bool, backup map[string]platform.PermValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !enabled {
		backup = nil
	}
	s.panics[tenantID] = PanicState{Enabled: enabled, Backup: backup}
	return nil
}

func (s *MemPolicyStore) GetSettings(ctx context.Context, tenantID string) (TenantSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.settings[tenantID]; ok {
		return v, nil
	}
	return DefaultTenantSettings, nil
}

func (s *MemPolicyStore) SetSettings(ctx context.Context, tenantID string, patch TenantSettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.settings[tenantID]
	if !ok {
		cur = DefaultTenantSettings
	}
	s.settings[tenantID] = patch.apply(cur)
	return nil
}
