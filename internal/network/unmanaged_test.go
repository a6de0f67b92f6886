package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnmanaged(t *testing.T) {
	t.Parallel()

	var u Unmanaged
	assert.True(t, u.Projection().Since.IsZero())
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	u.Start(context.Background(), t0)
	u.Tick(context.Background(), t0.Add(time.Hour))
	assert.True(t, u.Usable())
	assert.Equal(t, StateConnected, u.State())
	assert.Equal(t, Projection{State: "Connected", Since: t0, Usable: true}, u.Projection())
}
