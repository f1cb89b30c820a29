/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package safesend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/safesendhq/safesend/config"
	"github.com/safesendhq/safesend/internal/notification"
	"github.com/safesendhq/safesend/internal/request"
)

// Webhook event names, one per committed transition.
const (
	EventEscrowCreated      = "escrow.created"
	EventEscrowReleased     = "escrow.released"
	EventEscrowRefunded     = "escrow.refunded"
	EventEscrowFraudFlagged = "escrow.fraud_flagged"
	EventOfferCreated       = "offer.created"
	EventOfferFunded        = "offer.funded"
	EventOfferRejected      = "offer.rejected"
	EventOfferCompleted     = "offer.completed"
	EventOfferWithdrawn     = "offer.withdrawn"
	EventOfferDeactivated   = "offer.deactivated"
)

// NewWebhook represents the structure of a webhook notification.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// SendWebhook enqueues a webhook notification. A missing webhook URL
// disables delivery without failing the transition.
func (s *SafeSend) SendWebhook(newWebhook NewWebhook) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}
	return s.queue.queueWebhook(conf, newWebhook)
}

// postTransitionActions delivers the webhook for a committed transition.
// Delivery is fire-and-forget: the transition already committed, so a
// notification failure only gets reported, never rolled back.
func (s *SafeSend) postTransitionActions(_ context.Context, event string, payload interface{}) {
	go func() {
		err := s.SendWebhook(NewWebhook{
			Event:   event,
			Payload: payload,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}

// ProcessWebhook delivers a webhook notification task from the queue.
// Transient HTTP failures are retried with exponential backoff before the
// task is handed back to asynq.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	deliver := func() error {
		body, err := request.ToJsonReq(&payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequest("POST", conf.Notification.Webhook.Url, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range conf.Notification.Webhook.Headers {
			req.Header.Set(key, value)
		}

		var response map[string]interface{}
		resp, err := request.Call(req, &response)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logrus.Warnf("webhook delivery failed with status code: %d", resp.StatusCode)
			return fmt.Errorf("webhook delivery failed with status code: %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
	), 3), ctx)
	return backoff.Retry(deliver, policy)
}
