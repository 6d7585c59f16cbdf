package scheduler

import (
	"fmt"
	"sort"
)

// ValidateAssignments 检查同一天的时段是否重叠，以及是否都落在营业时间内
func ValidateAssignments(assignments []Assignment, hours WorkingHours) error {
	for _, a := range assignments {
		if a.Start < hours.Start || a.End > hours.End {
			return fmt.Errorf("预约 %d 的时段 %s-%s 超出了营业时间 %s", a.ID, a.StartClock(), a.EndClock(), hours)
		}
		if a.End <= a.Start {
			return fmt.Errorf("预约 %d: %w", a.ID, ErrInvalidDuration)
		}
	}

	sorted := make([]Assignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameDate(sorted[i].Date, sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Start < sorted[j].Start
	})

	// 排序后只需要比较相邻的两个时段
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if sameDate(prev.Date, cur.Date) && cur.Start < prev.End {
			return fmt.Errorf("预约 %d 和预约 %d 的时段冲突", prev.ID, cur.ID)
		}
	}

	return nil
}
