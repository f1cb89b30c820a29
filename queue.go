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
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/safesendhq/safesend/config"
)

// Queue wraps the asynq client used for webhook delivery.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

func NewQueue(conf *config.Configuration) *Queue {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: conf.Redis.Dns})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: conf.Redis.Dns})
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// queueWebhook enqueues a webhook notification for asynchronous delivery.
func (q *Queue) queueWebhook(conf *config.Configuration, webhook NewWebhook) error {
	payload, err := json.Marshal(webhook)
	if err != nil {
		return err
	}
	task := asynq.NewTask(conf.Queue.WebhookQueue, payload,
		asynq.Queue(conf.Queue.WebhookQueue),
		asynq.MaxRetry(conf.Queue.MaxRetryAttempts),
	)
	if _, err := q.Client.Enqueue(task); err != nil {
		return fmt.Errorf("enqueue webhook: %w", err)
	}
	return nil
}
