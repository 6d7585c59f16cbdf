package domain

import "time"

type Notification struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userID"`
	Message        string     `json:"message"`
	IsRead         bool       `json:"isRead"`
	AppointmentID  *int64     `json:"appointmentID"`
	ActionRequired bool       `json:"actionRequired"`
	NewDate        *time.Time `json:"newDate"`
	NewTime        *string    `json:"newTime"`
	CreatedAt      time.Time  `json:"createdAt"`
}
