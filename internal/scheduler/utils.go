package scheduler

import (
	"fmt"
	"time"
)

// ParseClock 将 15:04:05 或 15:04 格式的时间解析为距离零点的偏移量
func ParseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}

	// 24:00:00 在数据库的 time 类型中是合法的，表示营业到午夜
	if s == "24:00:00" || s == "24:00" {
		return 24 * time.Hour, nil
	}

	return 0, fmt.Errorf("无法解析时间 %q", s)
}

func FormatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// DateOf 返回 t 在其自身时区下的日期，统一表示为 UTC 零点
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
