package scheduler

import (
	"time"
)

/**
 * Allocate 按输入顺序贪心地为每个请求分配时段：
 * 		1. 游标从 date 当天的营业开始时间出发
 * 		2. 每个请求的开始时间为游标位置，结束时间为开始时间加上时长
 * 		3. 游标前进 时长 + opts.Buffer
 * 		4. 当天放不下时顺延到下一天的营业开始时间（opts.Rollover 为 false 时报错）
 * 输出顺序与输入顺序一致，同一天内的时段互不重叠，且全部落在营业时间内。
 * 这只是一次从左到右的压缩，不会回填前面留下的空档。
 */
func Allocate(date time.Time, requests []Request, hours WorkingHours, opts Options) ([]Assignment, error) {
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	if opts.Buffer < 0 {
		return nil, ErrInvalidBuffer
	}

	assignments := make([]Assignment, 0, len(requests))
	if len(requests) == 0 {
		return assignments, nil
	}

	c := cursor{date: DateOf(date), at: hours.Start}
	for _, req := range requests {
		next, a, err := place(c, req, hours, opts)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
		c = next
	}

	// 结果必须满足不重叠以及营业时间的约束
	if err := ValidateAssignments(assignments, hours); err != nil {
		return nil, err
	}

	return assignments, nil
}
