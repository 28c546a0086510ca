package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/haven-social/sentinel/automod/platform"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"
)

// Envelope for events read off the gateway socket. Exactly one of the
// payload pointers is set, matching Type.
type gatewayEvent struct {
	Seq     int64                  `json:"seq"`
	Type    string                 `json:"type"`
	Message *platform.MessageEvent `json:"message,omitempty"`
	Join    *platform.JoinEvent    `json:"join,omitempty"`
	Policy  *policyChangeEvent     `json:"policy,omitempty"`
}

// Emitted by the platform when tenant configuration is written outside this
// process (eg, by another sentineld instance without a shared redis cache).
type policyChangeEvent struct {
	TenantID string `json:"tenant_id"`
	Category string `json:"category"`
}

func (s *Server) RunConsumer(ctx context.Context) error {

	cur, err := s.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	dialer := websocket.DefaultDialer
	u, err := url.Parse(s.gatewayHost)
	if err != nil {
		return fmt.Errorf("invalid gateway host URI: %w", err)
	}
	u.Path = "gateway/v1/subscribe"
	if cur != 0 {
		u.RawQuery = fmt.Sprintf("cursor=%d", cur)
	}
	s.logger.Info("subscribing to tenant event stream", "upstream", s.gatewayHost, "cursor", cur)
	con, _, err := dialer.Dial(u.String(), http.Header{
		"User-Agent": []string{fmt.Sprintf("sentineld/%s", versioninfo.Short())},
	})
	if err != nil {
		return fmt.Errorf("subscribing to gateway failed (dialing): %w", err)
	}
	defer con.Close()

	// events for distinct subjects are independent, so process them with
	// bounded parallelism; per-key ordering is handled inside the stores
	sem := make(chan struct{}, 200)
	for {
		_, raw, err := con.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading from gateway socket: %w", err)
		}
		var evt gatewayEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			s.logger.Error("malformed gateway event", "err", err)
			eventsMalformed.Inc()
			continue
		}
		atomic.StoreInt64(&s.lastSeq, evt.Seq)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			s.handleGatewayEvent(ctx, &evt)
		}()
	}
}

// NOTE: for now, this function basically never errors, just logs and returns. Should think through error processing better.
func (s *Server) handleGatewayEvent(ctx context.Context, evt *gatewayEvent) {

	logger := s.logger.With("event", evt.Type, "seq", evt.Seq)
	logger.Debug("received gateway event")
	eventsReceived.WithLabelValues(evt.Type).Inc()

	switch evt.Type {
	case "message_create":
		if evt.Message == nil {
			logger.Error("message_create event missing payload")
			eventsMalformed.Inc()
			return
		}
		if err := s.engine.ProcessMessage(ctx, *evt.Message); err != nil {
			logger.Error("engine failed to process message", "tenant", evt.Message.TenantID, "message", evt.Message.MessageID, "err", err)
		}
	case "message_update":
		if evt.Message == nil {
			logger.Error("message_update event missing payload")
			eventsMalformed.Inc()
			return
		}
		if err := s.engine.ProcessMessageEdit(ctx, *evt.Message); err != nil {
			logger.Error("engine failed to process message edit", "tenant", evt.Message.TenantID, "message", evt.Message.MessageID, "err", err)
		}
	case "member_join":
		if evt.Join == nil {
			logger.Error("member_join event missing payload")
			eventsMalformed.Inc()
			return
		}
		if err := s.engine.ProcessMemberJoin(ctx, *evt.Join); err != nil {
			logger.Error("engine failed to process member join", "tenant", evt.Join.TenantID, "member", evt.Join.MemberID, "err", err)
		}
	case "policy_update":
		if evt.Policy == nil {
			logger.Error("policy_update event missing payload")
			eventsMalformed.Inc()
			return
		}
		s.engine.OnPolicyChanged(ctx, evt.Policy.TenantID, evt.Policy.Category)
	default:
		// other event types are not interesting to moderation
	}
}
