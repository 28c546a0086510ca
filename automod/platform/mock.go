package platform

import (
	"context"
	"sync"
	"time"
)

// MockClient is an in-memory AdminClient for tests and local development.
// Enforcement calls are recorded so tests can assert on what was attempted.
type MockClient struct {
	mu sync.Mutex

	Members  map[string]*MemberMeta  // tenantID/memberID
	Bots     map[string]*MemberMeta  // tenantID
	Perms    map[string]*Permissions // tenantID
	Owners   map[string]string       // tenantID -> memberID
	Channels map[string][]ChannelMeta
	PostPerm map[string]PermValue // tenantID/channelID

	// errors to inject, keyed by action name ("delete", "kick", "ban", "restrict", "set_perm")
	Fail map[string]error

	Deleted    []ActionRecord
	Restricted []ActionRecord
	Kicked     []ActionRecord
	Banned     []ActionRecord
	Notices    []SentNotice
}

type ActionRecord struct {
	TenantID string
	Subject  string
	Reason   string
}

type SentNotice struct {
	TenantID string
	Target   string // channel or member id
	Direct   bool
	Notice   Notice
}

var _ AdminClient = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		Members:  make(map[string]*MemberMeta),
		Bots:     make(map[string]*MemberMeta),
		Perms:    make(map[string]*Permissions),
		Owners:   make(map[string]string),
		Channels: make(map[string][]ChannelMeta),
		PostPerm: make(map[string]PermValue),
		Fail:     make(map[string]error),
	}
}

// InsertMember registers a member, creating default bot metadata and full
// permissions for the tenant if none exist yet.
func (m *MockClient) InsertMember(meta MemberMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Members[meta.TenantID+"/"+meta.ID] = &meta
	if _, ok := m.Bots[meta.TenantID]; !ok {
		m.Bots[meta.TenantID] = &MemberMeta{
			ID:              "bot",
			TenantID:        meta.TenantID,
			TopRolePosition: 100,
			IsAutomated:     true,
		}
	}
	if _, ok := m.Perms[meta.TenantID]; !ok {
		m.Perms[meta.TenantID] = &Permissions{
			DeleteMessages:  true,
			RestrictMembers: true,
			KickMembers:     true,
			BanMembers:      true,
			ManageChannels:  true,
		}
	}
}

func (m *MockClient) GetMember(ctx context.Context, tenantID, memberID string) (*MemberMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.Members[tenantID+"/"+memberID]
	if !ok {
		return nil, ErrNotFound
	}
	return meta, nil
}

func (m *MockClient) GetBotMember(ctx context.Context, tenantID string) (*MemberMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.Bots[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return meta, nil
}

func (m *MockClient) GetBotPermissions(ctx context.Context, tenantID string) (*Permissions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Perms[tenantID]
	if !ok {
		return &Permissions{}, nil
	}
	return p, nil
}

func (m *MockClient) GetOwnerID(ctx context.Context, tenantID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Owners[tenantID], nil
}

func (m *MockClient) ListTextChannels(ctx context.Context, tenantID string) ([]ChannelMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Channels[tenantID], nil
}

func (m *MockClient) GetPostPermission(ctx context.Context, tenantID, channelID string) (PermValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.PostPerm[tenantID+"/"+channelID]
	if !ok {
		return PermUnset, nil
	}
	return v, nil
}

func (m *MockClient) SetPostPermission(ctx context.Context, tenantID, channelID string, val PermValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["set_perm/"+channelID]; err != nil {
		return err
	}
	m.PostPerm[tenantID+"/"+channelID] = val
	return nil
}

func (m *MockClient) DeleteMessage(ctx context.Context, tenantID, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["delete"]; err != nil {
		return err
	}
	m.Deleted = append(m.Deleted, ActionRecord{TenantID: tenantID, Subject: messageID})
	return nil
}

func (m *MockClient) RestrictMember(ctx context.Context, tenantID, memberID string, d time.Duration, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["restrict"]; err != nil {
		return err
	}
	m.Restricted = append(m.Restricted, ActionRecord{TenantID: tenantID, Subject: memberID, Reason: reason})
	return nil
}

func (m *MockClient) KickMember(ctx context.Context, tenantID, memberID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["kick"]; err != nil {
		return err
	}
	m.Kicked = append(m.Kicked, ActionRecord{TenantID: tenantID, Subject: memberID, Reason: reason})
	return nil
}

func (m *MockClient) BanMember(ctx context.Context, tenantID, memberID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["ban"]; err != nil {
		return err
	}
	m.Banned = append(m.Banned, ActionRecord{TenantID: tenantID, Subject: memberID, Reason: reason})
	return nil
}

func (m *MockClient) SendChannelNotice(ctx context.Context, tenantID, channelID string, notice Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["channel_notice"]; err != nil {
		return err
	}
	m.Notices = append(m.Notices, SentNotice{TenantID: tenantID, Target: channelID, Notice: notice})
	return nil
}

func (m *MockClient) SendDirectNotice(ctx context.Context, tenantID, memberID string, notice Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["direct_notice"]; err != nil {
		return err
	}
	m.Notices = append(m.Notices, SentNotice{TenantID: tenantID, Target: memberID, Direct: true, Notice: notice})
	return nil
}
