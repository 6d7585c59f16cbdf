package scheduler

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDuration             = errors.New("预约时长必须大于 0 且不超过一天")
	ErrInvalidWorkingHours         = errors.New("营业开始时间必须早于营业结束时间")
	ErrInvalidBuffer               = errors.New("预约间隔不能为负数")
	ErrDurationExceedsWorkingHours = errors.New("预约时长超过了一天的营业时长")
	ErrWorkingHoursExceeded        = errors.New("当天的营业时间不足以容纳所有预约")
)

// WorkingHours 表示一天中可以接受预约的时间段 [Start, End)，均为距离零点的偏移量
type WorkingHours struct {
	Start time.Duration
	End   time.Duration
}

func NewWorkingHours(start, end string) (WorkingHours, error) {
	s, err := ParseClock(start)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("营业开始时间格式错误: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("营业结束时间格式错误: %w", err)
	}

	wh := WorkingHours{Start: s, End: e}
	if err := wh.Validate(); err != nil {
		return WorkingHours{}, err
	}
	return wh, nil
}

func (wh WorkingHours) Validate() error {
	if wh.Start < 0 || wh.End > 24*time.Hour || wh.Start >= wh.End {
		return ErrInvalidWorkingHours
	}
	return nil
}

func (wh WorkingHours) Length() time.Duration {
	return wh.End - wh.Start
}

func (wh WorkingHours) String() string {
	return FormatClock(wh.Start) + "-" + FormatClock(wh.End)
}

// Request 是一次分配中的一个预约请求，输入顺序即优先级
type Request struct {
	ID       int64
	Duration time.Duration
}

// Assignment 是分配给某个预约的时段
type Assignment struct {
	ID    int64
	Date  time.Time // 当天零点（UTC），只有年月日有意义
	Start time.Duration
	End   time.Duration
}

func (a Assignment) StartClock() string {
	return FormatClock(a.Start)
}

func (a Assignment) EndClock() string {
	return FormatClock(a.End)
}

// StartAt 返回该时段在 loc 时区下的开始时刻
func (a Assignment) StartAt(loc *time.Location) time.Time {
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, loc).Add(a.Start)
}

// Options 控制一次分配的行为
type Options struct {
	Buffer   time.Duration // 相邻两个预约之间的空闲时间
	Rollover bool          // 当天放不下时是否顺延到下一天；为 false 时返回 ErrWorkingHoursExceeded
}
