// internal/infrastructure/queue/queue_test.go
package queue

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffForDoublesPerAttempt(t *testing.T) {
	base := 30 * time.Second

	assert.Equal(t, 30*time.Second, BackoffFor(1, base))
	assert.Equal(t, 60*time.Second, BackoffFor(2, base))
	assert.Equal(t, 120*time.Second, BackoffFor(3, base))
	assert.Equal(t, 240*time.Second, BackoffFor(4, base))
}

func TestBackoffForIsCapped(t *testing.T) {
	assert.Equal(t, time.Hour, BackoffFor(20, 30*time.Second))
}

func TestNoopDispatcherAcceptsJobs(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	d := NewNoopDispatcher(logger)
	err := d.Enqueue(context.Background(), JobOrderShipped, map[string]uint{"order_id": 1})
	require.NoError(t, err)
}
