//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-app-go/internal/testutil/containers"
)

func TestRedisLockerExcludes(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	locker := NewRedisLocker(rc.Client, 2*time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "root-a")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "root-a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := locker.Lock(ctx, "root-a")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	locker := NewRedisLocker(rc.Client, 100*time.Millisecond)
	lost := make(chan string, 1)
	locker.OnLost(func(key string) { lost <- key })
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "root-b")
	require.NoError(t, err)
	time.Sleep(250 * time.Millisecond)

	other, err := locker.Lock(ctx, "root-b")
	require.NoError(t, err)
	unlock()
	assert.Equal(t, "root-b", <-lost)
	other()
}
