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

// Package safesend implements the PYUSD escrow and offer state machines
// over a custodial postgres ledger. Every balance-moving transition is
// atomic with its status update and serialized per entity.
package safesend

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/safesendhq/safesend/chain"
	"github.com/safesendhq/safesend/config"
	"github.com/safesendhq/safesend/database"
	redlock "github.com/safesendhq/safesend/internal/lock"
	redis_db "github.com/safesendhq/safesend/internal/redis-db"
	"github.com/safesendhq/safesend/model"
)

// SafeSend is the main service struct tying the repository, the per-entity
// lock backend, the custody client and the webhook queue together.
type SafeSend struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	custody    chain.Client
}

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("safesend.server")

// lockWaitTimeout bounds how long a writer queues behind the current lock
// holder before giving up.
const lockWaitTimeout = 10 * time.Second

// NewSafeSend initializes the service from the global configuration: redis
// for locks and queues, the custody backend, and the authority singleton.
func NewSafeSend(db database.IDataSource) (*SafeSend, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	custody, err := chain.NewClient(context.Background(), configuration.Chain)
	if err != nil {
		return nil, err
	}

	owner, err := model.ParseAddress(configuration.Authority.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid authority owner: %w", err)
	}
	if _, err := db.EnsureAuthority(context.Background(), owner); err != nil {
		return nil, err
	}

	return &SafeSend{
		datasource: db,
		queue:      NewQueue(configuration),
		redis:      redisClient.Client(),
		custody:    custody,
	}, nil
}

// acquireLock serializes writes against a single entity. Lock keys are
// "escrow:<id>" and "offer:<id>". A second writer waits for the holder
// instead of failing, up to lockWaitTimeout.
func (s *SafeSend) acquireLock(ctx context.Context, key string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(s.redis, key, model.GenerateUUIDWithSuffix("loc"))
	err := locker.WaitLock(ctx, time.Minute, lockWaitTimeout)
	if err != nil {
		return nil, err
	}
	return locker, nil
}

func releaseLock(ctx context.Context, locker *redlock.Locker) {
	if locker == nil {
		return
	}
	if err := locker.Unlock(ctx); err != nil {
		logrus.Errorf("failed to release lock: %v", err)
	}
}

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}
