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
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/safesendhq/safesend/config"

	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})
	c, err := NewCache()
	assert.NoError(t, err)
	return c
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := "escrow:42"
	setValue := map[string]string{"status": "ACTIVE"}
	err := c.Set(ctx, key, setValue, 10*time.Minute)
	assert.NoError(t, err)

	var getValue map[string]string
	err = c.Get(ctx, key, &getValue)
	assert.NoError(t, err)
	assert.Equal(t, setValue, getValue)
}

func TestGetMissIsNil(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	var out map[string]string
	err := c.Get(ctx, "does-not-exist", &out)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := "offer:off_1"
	err := c.Set(ctx, key, "posted", time.Minute)
	assert.NoError(t, err)

	err = c.Delete(ctx, key)
	assert.NoError(t, err)

	var out string
	err = c.Get(ctx, key, &out)
	assert.NoError(t, err)
	assert.Empty(t, out)
}
