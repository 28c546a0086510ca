package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/haven-social/sentinel/automod/platform"
)

// Mirrors enforcement records to an ops Slack channel via "incoming webhook".
type SlackNotifier struct {
	SlackWebhookURL string
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) Send(ctx context.Context, notice platform.Notice) error {
	body, err := json.Marshal(SlackWebhookBody{Text: slackBody(notice)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := http.DefaultClient
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(notice platform.Notice) string {
	msg := "⚠️ Sentinel Enforcement ⚠️\n"
	msg += fmt.Sprintf("tenant `%s` / subject `%s`\n", notice.TenantID, notice.Subject)
	msg += fmt.Sprintf("Reason: `%s` (severity %s)\n", notice.ReasonCode, notice.Severity)
	for k, v := range notice.Evidence {
		msg += fmt.Sprintf("%s: `%v`\n", k, v)
	}
	return msg
}
