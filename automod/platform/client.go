package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Client is an AdminClient over the platform's REST admin API.
//
// Member and channel metadata reads are cached with a short TTL; enforcement
// and notice calls always go to the network. The underlying HTTP client
// retries transport-level failures, which is safe because the admin API's
// moderation endpoints are idempotent.
type Client struct {
	Host  string
	Token string

	httpClient *http.Client

	memberCache *expirable.LRU[string, *MemberMeta]
	permsCache  *expirable.LRU[string, *Permissions]
}

var _ AdminClient = (*Client)(nil)

func NewClient(host, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	return &Client{
		Host:        host,
		Token:       token,
		httpClient:  rc.StandardClient(),
		memberCache: expirable.NewLRU[string, *MemberMeta](50_000, nil, 5*time.Minute),
		permsCache:  expirable.NewLRU[string, *Permissions](5_000, nil, 5*time.Minute),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("platform API request failed: %s %s: status=%d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var ErrNotFound = fmt.Errorf("platform: not found")

func tenantPath(tenantID string, rest string) string {
	return "/admin/v1/tenants/" + url.PathEscape(tenantID) + rest
}

func (c *Client) GetMember(ctx context.Context, tenantID, memberID string) (*MemberMeta, error) {
	key := tenantID + "/" + memberID
	if m, ok := c.memberCache.Get(key); ok {
		return m, nil
	}
	var m MemberMeta
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, "/members/"+url.PathEscape(memberID)), nil, &m); err != nil {
		return nil, err
	}
	c.memberCache.Add(key, &m)
	return &m, nil
}

func (c *Client) GetBotMember(ctx context.Context, tenantID string) (*MemberMeta, error) {
	key := tenantID + "/@me"
	if m, ok := c.memberCache.Get(key); ok {
		return m, nil
	}
	var m MemberMeta
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, "/members/@me"), nil, &m); err != nil {
		return nil, err
	}
	c.memberCache.Add(key, &m)
	return &m, nil
}

func (c *Client) GetBotPermissions(ctx context.Context, tenantID string) (*Permissions, error) {
	if p, ok := c.permsCache.Get(tenantID); ok {
		return p, nil
	}
	var p Permissions
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, "/members/@me/permissions"), nil, &p); err != nil {
		return nil, err
	}
	c.permsCache.Add(tenantID, &p)
	return &p, nil
}

func (c *Client) GetOwnerID(ctx context.Context, tenantID string) (string, error) {
	var out struct {
		OwnerID string `json:"owner_id"`
	}
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, ""), nil, &out); err != nil {
		return "", err
	}
	return out.OwnerID, nil
}

func (c *Client) ListTextChannels(ctx context.Context, tenantID string) ([]ChannelMeta, error) {
	var out struct {
		Channels []ChannelMeta `json:"channels"`
	}
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, "/channels?type=text"), nil, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

func (c *Client) GetPostPermission(ctx context.Context, tenantID, channelID string) (PermValue, error) {
	var out struct {
		Post PermValue `json:"post"`
	}
	if err := c.do(ctx, http.MethodGet, tenantPath(tenantID, "/channels/"+url.PathEscape(channelID)+"/permissions/default"), nil, &out); err != nil {
		return PermUnset, err
	}
	if out.Post == "" {
		return PermUnset, nil
	}
	return out.Post, nil
}

func (c *Client) SetPostPermission(ctx context.Context, tenantID, channelID string, val PermValue) error {
	body := map[string]PermValue{"post": val}
	return c.do(ctx, http.MethodPut, tenantPath(tenantID, "/channels/"+url.PathEscape(channelID)+"/permissions/default"), body, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, tenantID, channelID, messageID string) error {
	return c.do(ctx, http.MethodDelete, tenantPath(tenantID, "/channels/"+url.PathEscape(channelID)+"/messages/"+url.PathEscape(messageID)), nil, nil)
}

func (c *Client) RestrictMember(ctx context.Context, tenantID, memberID string, d time.Duration, reason string) error {
	body := map[string]any{"duration_sec": int(d.Seconds()), "reason": reason}
	return c.do(ctx, http.MethodPost, tenantPath(tenantID, "/members/"+url.PathEscape(memberID)+"/restrict"), body, nil)
}

func (c *Client) KickMember(ctx context.Context, tenantID, memberID, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, tenantPath(tenantID, "/members/"+url.PathEscape(memberID)+"/kick"), body, nil)
}

func (c *Client) BanMember(ctx context.Context, tenantID, memberID, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, tenantPath(tenantID, "/members/"+url.PathEscape(memberID)+"/ban"), body, nil)
}

func (c *Client) SendChannelNotice(ctx context.Context, tenantID, channelID string, notice Notice) error {
	return c.do(ctx, http.MethodPost, tenantPath(tenantID, "/channels/"+url.PathEscape(channelID)+"/notices"), notice, nil)
}

func (c *Client) SendDirectNotice(ctx context.Context, tenantID, memberID string, notice Notice) error {
	return c.do(ctx, http.MethodPost, tenantPath(tenantID, "/members/"+url.PathEscape(memberID)+"/notices"), notice, nil)
}
