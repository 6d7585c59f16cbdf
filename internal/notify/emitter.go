package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
)

const (
	DateLayout = "Jan 02, 2006"
	TimeLayout = "3:04 PM"
)

type NotificationStore interface {
	InsertNotification(n *domain.Notification) error
}

type UserLookup interface {
	GetUserByID(id int64) (*domain.User, error)
}

type ServiceLookup interface {
	GetServiceByID(id int64) (*domain.Service, error)
}

type MailPublisher interface {
	PublishMail(msg *domain.MailMessage) error
}

// Emitter 为改期的预约创建通知记录，失败只记录日志，不会影响调用方
type Emitter struct {
	store     NotificationStore
	users     UserLookup
	services  ServiceLookup
	publisher MailPublisher
	now       func() time.Time
}

// NewEmitter 中的 users 和 publisher 可以为 nil，此时不会投递邮件
func NewEmitter(store NotificationStore, users UserLookup, services ServiceLookup, publisher MailPublisher) *Emitter {
	return &Emitter{
		store:     store,
		users:     users,
		services:  services,
		publisher: publisher,
		now:       time.Now,
	}
}

func (e *Emitter) Notify(apt *domain.Appointment, newDate time.Time, newTime string) {
	logger := slog.With("appointment_id", apt.ID, "client_id", apt.ClientID)

	if apt.ClientID == 0 {
		logger.Warn("预约没有关联客户，跳过通知")
		return
	}

	serviceName := ""
	if e.services != nil {
		if svc, err := e.services.GetServiceByID(apt.ServiceID); err != nil {
			logger.Warn("无法获取服务名称", "service_id", apt.ServiceID, "error", err)
		} else {
			serviceName = svc.Name
		}
	}

	// 自动重新排期的预约需要客户重新确认
	actionRequired := apt.Status == domain.StatusPendingConfirmation

	date := scheduler.DateOf(newDate)
	dateText, timeText, err := FormatSlot(date, newTime)
	if err != nil {
		logger.Error("无法格式化新的预约时间", "new_time", newTime, "error", err)
		return
	}

	appointmentID := apt.ID
	clock := newTime
	n := &domain.Notification{
		UserID:         apt.ClientID,
		Message:        ComposeMessage(serviceName, dateText, timeText, actionRequired),
		IsRead:         false,
		AppointmentID:  &appointmentID,
		ActionRequired: actionRequired,
		NewDate:        &date,
		NewTime:        &clock,
		CreatedAt:      e.now(),
	}

	if err := e.store.InsertNotification(n); err != nil {
		logger.Error("无法创建改期通知", "error", err)
		return
	}

	e.enqueueMail(logger, apt.ClientID, serviceName, dateText, timeText, actionRequired)
}

func (e *Emitter) enqueueMail(logger *slog.Logger, clientID int64, serviceName, dateText, timeText string, actionRequired bool) {
	if e.publisher == nil || e.users == nil {
		return
	}

	client, err := e.users.GetUserByID(clientID)
	if err != nil {
		logger.Warn("无法获取客户信息，跳过邮件", "error", err)
		return
	}
	if client.Email == "" {
		return
	}

	msg := &domain.MailMessage{
		Type: domain.MailTypeAppointmentRescheduled,
		To:   client.Email,
		Data: domain.AppointmentRescheduledMailData{
			FullName:       client.FullName,
			ServiceName:    serviceName,
			NewDate:        dateText,
			NewTime:        timeText,
			ActionRequired: actionRequired,
		},
	}
	if err := e.publisher.PublishMail(msg); err != nil {
		logger.Error("无法投递改期邮件", "error", err)
	}
}

// FormatSlot 将日期和 15:04:05 格式的时间转换为 "Jan 02, 2006" 和 "3:04 PM"
func FormatSlot(date time.Time, clock string) (string, string, error) {
	offset, err := scheduler.ParseClock(clock)
	if err != nil {
		return "", "", err
	}
	at := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).Add(offset)
	return date.Format(DateLayout), at.Format(TimeLayout), nil
}

func ComposeMessage(serviceName, dateText, timeText string, actionRequired bool) string {
	subject := "Your appointment"
	if serviceName != "" {
		subject = fmt.Sprintf("Your %s appointment", serviceName)
	}

	if actionRequired {
		return fmt.Sprintf("%s has been rescheduled to %s at %s. Please confirm the new time.", subject, dateText, timeText)
	}
	return fmt.Sprintf("%s has been moved to %s at %s.", subject, dateText, timeText)
}
