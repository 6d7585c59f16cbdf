package seed

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const demoClientUsername = "demo_client"

// demoCancelled 按插入顺序排列，即按 created_at 从早到晚：C、A、B
var demoCancelled = []struct {
	label    string
	duration int32
	start    string
}{
	{"C", 30, "14:00:00"},
	{"A", 45, "11:00:00"},
	{"B", 20, "15:30:00"},
}

/**
 * SeedDemoScenario 插入一组用于演示重新排期的数据：
 * 		1. 一个营业时间为 09:00-17:00、默认时长为 30 分钟的服务
 * 		2. 一个演示客户
 * 		3. 三个已取消的预约，时长依次为 30、45、20 分钟，用于自动排期
 * 		4. 明天的两个 60 分钟预约，用于自定义排序
 */
func SeedDemoScenario(r *repository.Repository, password, emailDomain string) error {
	svc := &domain.Service{
		Name:      "Demo Consultation",
		Duration:  30,
		StartTime: "09:00:00",
		EndTime:   "17:00:00",
	}
	if err := r.CreateService(svc); err != nil {
		return err
	}

	client, err := demoClient(r, password, emailDomain)
	if err != nil {
		return err
	}

	today := time.Now()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := todayDate.AddDate(0, 0, 1)

	for _, c := range demoCancelled {
		startTime, _ := time.Parse("15:04:05", c.start)
		apt := &domain.Appointment{
			ServiceID: svc.ID,
			ClientID:  client.ID,
			Date:      todayDate,
			StartTime: c.start,
			EndTime:   startTime.Add(time.Duration(c.duration) * time.Minute).Format("15:04:05"),
			Duration:  c.duration,
			Status:    domain.StatusCancelled,
		}
		if err := r.CreateAppointment(apt); err != nil {
			return err
		}
		slog.Info("插入已取消的预约", "label", c.label, "id", apt.ID, "duration", c.duration)

		// 保证 created_at 严格递增
		time.Sleep(10 * time.Millisecond)
	}

	for _, slot := range [][2]string{{"09:00:00", "10:00:00"}, {"10:05:00", "11:05:00"}} {
		apt := &domain.Appointment{
			ServiceID: svc.ID,
			ClientID:  client.ID,
			Date:      tomorrow,
			StartTime: slot[0],
			EndTime:   slot[1],
			Duration:  60,
			Status:    domain.StatusScheduled,
		}
		if err := r.CreateAppointment(apt); err != nil {
			return err
		}
		slog.Info("插入已预约的预约", "id", apt.ID, "date", tomorrow.Format(time.DateOnly), "start", slot[0])
	}

	return nil
}

func demoClient(r *repository.Repository, password, emailDomain string) (*domain.User, error) {
	client, err := r.GetUserByUsername(demoClientUsername)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	client = &domain.User{
		Username:     demoClientUsername,
		PasswordHash: string(passwordHash),
		FullName:     "演示客户",
		Email:        demoClientUsername + "@" + emailDomain,
		Role:         domain.RoleClient,
	}
	if err := r.CreateUser(client); err != nil {
		return nil, err
	}

	return client, nil
}
