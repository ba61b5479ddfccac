package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/examcore/internal/clock"
)

func TestMockAdvanceMovesNow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := clock.NewMock(start)

	m.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), m.Now())
}

func TestMockAfterFiresOnceDeadlinePasses(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := clock.NewMock(start)

	ch := m.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	m.Advance(time.Minute)
	select {
	case fired := <-ch:
		assert.Equal(t, start.Add(time.Minute), fired)
	default:
		t.Fatal("After did not fire once its deadline passed")
	}
}

func TestMockSetPinsAbsoluteInstant(t *testing.T) {
	m := clock.NewMock(time.Now())
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)

	m.Set(target)
	require.Equal(t, target, m.Now())
}
