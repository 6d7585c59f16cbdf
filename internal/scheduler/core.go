package scheduler

import (
	"fmt"
	"time"
)

// cursor 表示下一个预约最早可以开始的位置
type cursor struct {
	date time.Time
	at   time.Duration
}

func (c cursor) nextDay(hours WorkingHours) cursor {
	return cursor{date: c.date.AddDate(0, 0, 1), at: hours.Start}
}

// place 为一个请求分配时段，返回新的游标，不修改传入的游标
func place(c cursor, req Request, hours WorkingHours, opts Options) (cursor, Assignment, error) {
	if req.Duration <= 0 {
		return c, Assignment{}, fmt.Errorf("预约 %d: %w", req.ID, ErrInvalidDuration)
	}
	if req.Duration > hours.Length() {
		return c, Assignment{}, fmt.Errorf("预约 %d: %w", req.ID, ErrDurationExceedsWorkingHours)
	}

	// 当天剩余时间不足以放下这个预约
	if c.at+req.Duration > hours.End {
		if !opts.Rollover {
			return c, Assignment{}, fmt.Errorf("预约 %d: %w", req.ID, ErrWorkingHoursExceeded)
		}
		c = c.nextDay(hours)
	}

	a := Assignment{
		ID:    req.ID,
		Date:  c.date,
		Start: c.at,
		End:   c.at + req.Duration,
	}

	next := cursor{date: c.date, at: a.End + opts.Buffer}
	if opts.Rollover && next.at >= hours.End {
		next = next.nextDay(hours)
	}

	return next, a, nil
}
