package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

func TestEveryInterval(t *testing.T) {
	t.Parallel()

	s := queue.EveryInterval(5 * time.Minute)
	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(5*time.Minute), s.Next(from))
	assert.Equal(t, "every 5m0s", s.String())
}

func TestDailyAt(t *testing.T) {
	t.Parallel()

	s := queue.DailyAt(3, 30)
	assert.Equal(t, "daily at 03:30", s.String())

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"before today's run", time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC)},
		{"exactly at run time", time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)},
		{"after today's run", time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 3, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Next(tt.from))
		})
	}
}
