package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomClient 生成一个客户账号，邮箱由姓名的拼音推导
func GenerateRandomClient(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleClient,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var serviceNames = []string{"Haircut", "Massage", "Consultation", "Dental Cleaning", "Eye Exam", "Physiotherapy"}

// GenerateRandomService 生成的营业时间在 07:00~11:00 开始，持续 6~10 小时
func GenerateRandomService() *domain.Service {
	startHour := rand.Intn(5) + 7
	length := rand.Intn(5) + 6

	return &domain.Service{
		Name:      fmt.Sprintf("%s %03d", serviceNames[rand.Intn(len(serviceNames))], rand.Intn(1000)),
		Duration:  int32((rand.Intn(6) + 1) * 15),
		StartTime: fmt.Sprintf("%02d:00:00", startHour),
		EndTime:   fmt.Sprintf("%02d:00:00", startHour+length),
	}
}

var statuses = []domain.AppointmentStatus{
	domain.StatusScheduled,
	domain.StatusScheduled,
	domain.StatusCompleted,
	domain.StatusCancelled,
}

// GenerateRandomAppointment 在未来一周内为客户生成一个位于服务营业时间内的预约
func GenerateRandomAppointment(svc *domain.Service, client *domain.User) (*domain.Appointment, error) {
	startTime, err := time.Parse("15:04:05", svc.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := time.Parse("15:04:05", svc.EndTime)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(svc.Duration) * time.Minute
	slots := int(endTime.Sub(startTime)-duration)/int(15*time.Minute) + 1
	if slots <= 0 {
		return nil, fmt.Errorf("服务 %d 的营业时长不足以容纳一个预约", svc.ID)
	}

	start := startTime.Add(time.Duration(rand.Intn(slots)) * 15 * time.Minute)
	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day()+rand.Intn(7), 0, 0, 0, 0, time.UTC)

	return &domain.Appointment{
		ServiceID: svc.ID,
		ClientID:  client.ID,
		Date:      date,
		StartTime: start.Format("15:04:05"),
		EndTime:   start.Add(duration).Format("15:04:05"),
		Duration:  svc.Duration,
		Status:    statuses[rand.Intn(len(statuses))],
	}, nil
}
