package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func mustHours(t *testing.T, start, end string) WorkingHours {
	t.Helper()
	wh, err := NewWorkingHours(start, end)
	require.NoError(t, err)
	return wh
}

func clock(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := ParseClock(s)
	require.NoError(t, err)
	return d
}

func TestAllocate_EmptyInput(t *testing.T) {
	out, err := Allocate(day, nil, mustHours(t, "09:00", "17:00"), Options{Rollover: true})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAllocate_CompactsInInputOrder(t *testing.T) {
	hours := mustHours(t, "09:00:00", "17:00:00")
	requests := []Request{
		{ID: 3, Duration: 30 * time.Minute},
		{ID: 1, Duration: 45 * time.Minute},
		{ID: 2, Duration: 20 * time.Minute},
	}

	out, err := Allocate(day, requests, hours, Options{Rollover: true})
	require.NoError(t, err)
	require.Len(t, out, 3)

	expected := []struct {
		id         int64
		start, end string
	}{
		{3, "09:00:00", "09:30:00"},
		{1, "09:30:00", "10:15:00"},
		{2, "10:15:00", "10:35:00"},
	}
	for i, e := range expected {
		assert.Equal(t, e.id, out[i].ID)
		assert.Equal(t, e.start, out[i].StartClock())
		assert.Equal(t, e.end, out[i].EndClock())
		assert.True(t, out[i].Date.Equal(day))
	}
}

func TestAllocate_RollsOverToNextDay(t *testing.T) {
	hours := mustHours(t, "09:00", "10:00")
	requests := []Request{
		{ID: 1, Duration: 40 * time.Minute},
		{ID: 2, Duration: 40 * time.Minute},
	}

	out, err := Allocate(day, requests, hours, Options{Rollover: true})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, out[0].Date.Equal(day))
	assert.Equal(t, "09:00:00", out[0].StartClock())
	assert.Equal(t, "09:40:00", out[0].EndClock())

	assert.True(t, out[1].Date.Equal(day.AddDate(0, 0, 1)))
	assert.Equal(t, "09:00:00", out[1].StartClock())
	assert.Equal(t, "09:40:00", out[1].EndClock())
}

func TestAllocate_ExactFitDoesNotRollOver(t *testing.T) {
	hours := mustHours(t, "09:00", "10:00")
	requests := []Request{
		{ID: 1, Duration: 30 * time.Minute},
		{ID: 2, Duration: 30 * time.Minute},
		{ID: 3, Duration: 30 * time.Minute},
	}

	out, err := Allocate(day, requests, hours, Options{Rollover: true})
	require.NoError(t, err)

	assert.True(t, out[1].Date.Equal(day))
	assert.Equal(t, "09:30:00", out[1].StartClock())
	assert.Equal(t, "10:00:00", out[1].EndClock())
	assert.True(t, out[2].Date.Equal(day.AddDate(0, 0, 1)))
	assert.Equal(t, "09:00:00", out[2].StartClock())
}

func TestAllocate_Buffer(t *testing.T) {
	hours := mustHours(t, "09:00", "17:00")
	requests := []Request{
		{ID: 1, Duration: time.Hour},
		{ID: 2, Duration: time.Hour},
	}

	out, err := Allocate(day, requests, hours, Options{Buffer: 5 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", out[0].StartClock())
	assert.Equal(t, "10:05:00", out[1].StartClock())
	assert.Equal(t, "11:05:00", out[1].EndClock())
}

func TestAllocate_WithoutRolloverRejectsOverflow(t *testing.T) {
	hours := mustHours(t, "09:00", "10:00")
	requests := []Request{
		{ID: 1, Duration: 40 * time.Minute},
		{ID: 2, Duration: 40 * time.Minute},
	}

	_, err := Allocate(day, requests, hours, Options{})
	assert.ErrorIs(t, err, ErrWorkingHoursExceeded)
}

func TestAllocate_RejectsInvalidInput(t *testing.T) {
	hours := mustHours(t, "09:00", "10:00")

	tests := []struct {
		name     string
		hours    WorkingHours
		requests []Request
		opts     Options
		want     error
	}{
		{"zero duration", hours, []Request{{ID: 1}}, Options{Rollover: true}, ErrInvalidDuration},
		{"negative duration", hours, []Request{{ID: 1, Duration: -time.Minute}}, Options{Rollover: true}, ErrInvalidDuration},
		{"duration longer than a day", hours, []Request{{ID: 1, Duration: 2 * time.Hour}}, Options{Rollover: true}, ErrDurationExceedsWorkingHours},
		{"start equals end", WorkingHours{Start: 9 * time.Hour, End: 9 * time.Hour}, []Request{{ID: 1, Duration: time.Minute}}, Options{}, ErrInvalidWorkingHours},
		{"start after end", WorkingHours{Start: 17 * time.Hour, End: 9 * time.Hour}, nil, Options{}, ErrInvalidWorkingHours},
		{"negative buffer", hours, nil, Options{Buffer: -time.Minute}, ErrInvalidBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Allocate(day, tt.requests, tt.hours, tt.opts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, out)
		})
	}
}

func TestAllocate_InvariantsHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	hours := mustHours(t, "08:30", "18:00")

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		requests := make([]Request, n)
		for i := range requests {
			requests[i] = Request{ID: int64(i + 1), Duration: time.Duration(rng.Intn(120)+5) * time.Minute}
		}
		buffer := time.Duration(rng.Intn(15)) * time.Minute

		out, err := Allocate(day, requests, hours, Options{Buffer: buffer, Rollover: true})
		require.NoError(t, err)
		require.Len(t, out, n)

		for i, a := range out {
			// 输出顺序与输入一致
			assert.Equal(t, requests[i].ID, a.ID)
			assert.Equal(t, requests[i].Duration, a.End-a.Start)
			assert.GreaterOrEqual(t, a.Start, hours.Start)
			assert.LessOrEqual(t, a.End, hours.End)

			if i == 0 {
				continue
			}
			prev := out[i-1]
			// 按 (date, start) 排序后的顺序与输入顺序一致
			if prev.Date.Equal(a.Date) {
				assert.GreaterOrEqual(t, a.Start, prev.End+buffer)
			} else {
				assert.True(t, a.Date.After(prev.Date))
			}
		}
		assert.NoError(t, ValidateAssignments(out, hours))
	}
}

func TestAllocate_IsIdempotentOnCompactedInput(t *testing.T) {
	hours := mustHours(t, "09:00", "17:00")
	requests := []Request{
		{ID: 1, Duration: 30 * time.Minute},
		{ID: 2, Duration: 60 * time.Minute},
		{ID: 3, Duration: 15 * time.Minute},
	}

	first, err := Allocate(day, requests, hours, Options{Rollover: true})
	require.NoError(t, err)
	second, err := Allocate(day, requests, hours, Options{Rollover: true})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidateAssignments(t *testing.T) {
	hours := mustHours(t, "09:00", "17:00")

	ok := []Assignment{
		{ID: 1, Date: day, Start: clock(t, "09:00"), End: clock(t, "10:00")},
		{ID: 2, Date: day, Start: clock(t, "10:00"), End: clock(t, "11:00")},
		{ID: 3, Date: day.AddDate(0, 0, 1), Start: clock(t, "09:30"), End: clock(t, "10:30")},
	}
	assert.NoError(t, ValidateAssignments(ok, hours))

	overlap := []Assignment{
		{ID: 1, Date: day, Start: clock(t, "09:00"), End: clock(t, "10:00")},
		{ID: 2, Date: day, Start: clock(t, "09:59"), End: clock(t, "10:30")},
	}
	assert.Error(t, ValidateAssignments(overlap, hours))

	outside := []Assignment{
		{ID: 1, Date: day, Start: clock(t, "16:30"), End: clock(t, "17:30")},
	}
	assert.Error(t, ValidateAssignments(outside, hours))
}

func TestParseAndFormatClock(t *testing.T) {
	d, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, d)

	d, err = ParseClock("17:05:30")
	require.NoError(t, err)
	assert.Equal(t, "17:05:30", FormatClock(d))

	d, err = ParseClock("24:00:00")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	_, err = ParseClock("9 am")
	assert.Error(t, err)
}

func TestNewWorkingHours(t *testing.T) {
	wh, err := NewWorkingHours("09:00:00", "17:00:00")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, wh.Length())
	assert.Equal(t, "09:00:00-17:00:00", wh.String())

	_, err = NewWorkingHours("17:00", "09:00")
	assert.ErrorIs(t, err, ErrInvalidWorkingHours)

	_, err = NewWorkingHours("nine", "17:00")
	assert.Error(t, err)
}
