package policystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haven-social/sentinel/automod/platform"
)

// GormPolicyStore persists one row per (tenant, category), with the policy
// serialized as JSON. Rows are created lazily on first write; reads of absent
// rows return the package defaults.
type GormPolicyStore struct {
	DB *gorm.DB
}

var _ PolicyStore = (*GormPolicyStore)(nil)

type TenantPolicy struct {
	TenantID  string `gorm:"primaryKey;column:tenant_id"`
	Category  string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func NewGormPolicyStore(db *gorm.DB) (*GormPolicyStore, error) {
	if err := db.AutoMigrate(&TenantPolicy{}); err != nil {
		return nil, fmt.Errorf("migrating policy store: %w", err)
	}
	return &GormPolicyStore{DB: db}, nil
}

// get unmarshals the stored row into out, which the caller pre-populates with
// defaults so partial historical values still read consistently.
func (s *GormPolicyStore) get(ctx context.Context, tenantID, category string, out any) error {
	var row TenantPolicy
	err := s.DB.WithContext(ctx).First(&row, "tenant_id = ? AND category = ?", tenantID, category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading policy %s/%s: %w", tenantID, category, err)
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		return fmt.Errorf("parsing stored policy %s/%s: %w", tenantID, category, err)
	}
	return nil
}

func (s *GormPolicyStore) put(ctx context.Context, tenantID, category string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	row := TenantPolicy{TenantID: tenantID, Category: category, Value: b, UpdatedAt: time.Now()}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing policy %s/%s: %w", tenantID, category, err)
	}
	return nil
}

func (s *GormPolicyStore) GetRisk(ctx context.Context, tenantID string) (RiskPolicy, error) {
	v := DefaultRiskPolicy
	err := s.get(ctx, tenantID, CategoryRisk, &v)
	return v, err
}

func (s *GormPolicyStore) SetRisk(ctx context.Context, tenantID string, patch RiskPolicyPatch) error {
	cur, err := s.GetRisk(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.put(ctx, tenantID, CategoryRisk, patch.apply(cur))
}

func (s *GormPolicyStore) GetSpam(ctx context.Context, tenantID string) (SpamPolicy, error) {
	v := DefaultSpamPolicy
	err := s.get(ctx, tenantID, CategorySpam, &v)
	return v, err
}

func (s *GormPolicyStore) SetSpam(ctx context.Context, tenantID string, patch SpamPolicyPatch) error {
	cur, err := s.GetSpam(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.put(ctx, tenantID, CategorySpam, patch.apply(cur))
}

func (s *GormPolicyStore) GetLockdown(ctx context.Context, tenantID string) (LockdownPolicy, error) {
	v := DefaultLockdownPolicy
	err := s.get(ctx, tenantID, CategoryLockdown, &v)
	return v, err
}

func (s *GormPolicyStore) SetLockdown(ctx context.Context, tenantID string, patch LockdownPolicyPatch) error {
	cur, err := s.GetLockdown(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.put(ctx, tenantID, CategoryLockdown, patch.apply(cur))
}

func (s *GormPolicyStore) GetPanic(ctx context.Context, tenantID string) (PanicState, error) {
	v := DefaultPanicState
	err := s.get(ctx, tenantID, CategoryPanic, &v)
	return v, err
}

func (s *GormPolicyStore) SetPanic(ctx context.Context, tenantID string, enabled bool, backup map[string]platform.PermValue) error {
	if !enabled {
		backup = nil
	}
	return s.put(ctx, tenantID, CategoryPanic, PanicState{Enabled: enabled, Backup: backup})
}

func (s *GormPolicyStore) GetSettings(ctx context.Context, tenantID string) (TenantSettings, error) {
	v := DefaultTenantSettings
	err := s.get(ctx, tenantID, CategorySettings, &v)
	return v, err
}

func (s *GormPolicyStore) SetSettings(ctx context.Context, tenantID string, patch TenantSettingsPatch) error {
	cur, err := s.GetSettings(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.put(ctx, tenantID, CategorySettings, patch.apply(cur))
}
