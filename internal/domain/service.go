package domain

import "time"

// Service 为调度器提供默认时长以及营业时间，调度器只读不写
type Service struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Duration  int32     `json:"duration"`  // 默认预约时长，单位为分钟
	StartTime string    `json:"startTime"` // 营业开始时间，格式为 15:04:05
	EndTime   string    `json:"endTime"`   // 营业结束时间，格式为 15:04:05
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
