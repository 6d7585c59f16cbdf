package domain

import "time"

type AppointmentStatus string

const (
	StatusScheduled           AppointmentStatus = "SCHEDULED"
	StatusCompleted           AppointmentStatus = "COMPLETED"
	StatusCancelled           AppointmentStatus = "CANCELLED"
	StatusPendingConfirmation AppointmentStatus = "PENDING_CONFIRMATION"
)

type Appointment struct {
	ID        int64             `json:"id"`
	ServiceID int64             `json:"serviceID"`
	ClientID  int64             `json:"clientID"`
	Date      time.Time         `json:"date"`
	StartTime string            `json:"startTime"` // 格式为 15:04:05
	EndTime   string            `json:"endTime"`   // 由 StartTime + Duration 推导
	Duration  int32             `json:"duration"`  // 单位为分钟，为 0 表示未设置
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Version   int32             `json:"-"`
}

// AppointmentUpdates 中为 nil 的字段不会被更新
type AppointmentUpdates struct {
	Date      *time.Time
	StartTime *string
	EndTime   *string
	Status    *AppointmentStatus
	UpdatedAt time.Time
}
