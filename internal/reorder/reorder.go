package reorder

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
)

var (
	ErrFetchCandidates      = errors.New("无法获取预约列表")
	ErrInvalidOrder         = errors.New("预约顺序不合法")
	ErrCustomReorderAborted = errors.New("自定义排序未能全部保存")
)

// Store 是调度器需要的预约存储操作
type Store interface {
	FetchCancelledAppointments() ([]*domain.Appointment, error)
	FetchAllAppointmentsOrdered() ([]*domain.Appointment, error)
	UpdateAppointment(id int64, updates *domain.AppointmentUpdates) error
}

type ServiceLookup interface {
	GetServiceByID(id int64) (*domain.Service, error)
}

// Notifier 在预约时段变更并保存成功后被调用，不允许返回错误
type Notifier interface {
	Notify(apt *domain.Appointment, newDate time.Time, newTime string)
}

type Options struct {
	DefaultHours    scheduler.WorkingHours
	DefaultDuration time.Duration
	CustomBuffer    time.Duration
	Location        *time.Location
	Now             func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DefaultHours:    scheduler.WorkingHours{Start: 9 * time.Hour, End: 17 * time.Hour},
		DefaultDuration: 30 * time.Minute,
		CustomBuffer:    5 * time.Minute,
		Location:        time.Local,
		Now:             time.Now,
	}
}

type Reorderer struct {
	store    Store
	services ServiceLookup
	notifier Notifier
	opts     Options
}

func New(store Store, services ServiceLookup, notifier Notifier, opts Options) *Reorderer {
	defaults := DefaultOptions()
	if opts.DefaultHours.Validate() != nil {
		opts.DefaultHours = defaults.DefaultHours
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = defaults.DefaultDuration
	}
	if opts.CustomBuffer < 0 {
		opts.CustomBuffer = defaults.CustomBuffer
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &Reorderer{
		store:    store,
		services: services,
		notifier: notifier,
		opts:     opts,
	}
}

// serviceCache 在一次调用内缓存服务信息，避免对同一服务重复查询
type serviceCache struct {
	lookup ServiceLookup
	items  map[int64]*domain.Service
}

func newServiceCache(lookup ServiceLookup) *serviceCache {
	return &serviceCache{lookup: lookup, items: make(map[int64]*domain.Service)}
}

func (c *serviceCache) get(id int64) (*domain.Service, bool) {
	if svc, ok := c.items[id]; ok {
		return svc, svc != nil
	}
	if c.lookup == nil {
		return nil, false
	}

	svc, err := c.lookup.GetServiceByID(id)
	if err != nil {
		slog.Warn("无法获取服务信息", "service_id", id, "error", err)
		svc = nil
	}
	c.items[id] = svc
	return svc, svc != nil
}

// workingHours 取服务的营业时间；服务不存在时退回默认营业时间，服务的营业时间本身不合法时报错
func (r *Reorderer) workingHours(cache *serviceCache, serviceID int64) (scheduler.WorkingHours, error) {
	svc, ok := cache.get(serviceID)
	if !ok || svc.StartTime == "" || svc.EndTime == "" {
		return r.opts.DefaultHours, nil
	}
	return scheduler.NewWorkingHours(svc.StartTime, svc.EndTime)
}

// maxDurationMinutes 是单个预约时长的上限（一整天），超过时换算成 time.Duration 可能溢出
const maxDurationMinutes = 24 * 60

func minutes(n int32) (time.Duration, error) {
	if n > maxDurationMinutes {
		return 0, fmt.Errorf("%w: %d 分钟超过一天", scheduler.ErrInvalidDuration, n)
	}
	return time.Duration(n) * time.Minute, nil
}

// duration 优先使用预约自身的时长，未设置时使用 fallback；负数原样返回交给分配器拒绝
func duration(apt *domain.Appointment, fallback time.Duration) (time.Duration, error) {
	if apt.Duration != 0 {
		return minutes(apt.Duration)
	}
	return fallback, nil
}

func (r *Reorderer) serviceDuration(cache *serviceCache, serviceID int64) (time.Duration, error) {
	if svc, ok := cache.get(serviceID); ok && svc.Duration > 0 {
		return minutes(svc.Duration)
	}
	return r.opts.DefaultDuration, nil
}

// groupHours 取一组预约各自服务营业时间的交集，交集为空时报错
func (r *Reorderer) groupHours(cache *serviceCache, appointments []*domain.Appointment) (scheduler.WorkingHours, error) {
	var hours scheduler.WorkingHours
	for i, apt := range appointments {
		wh, err := r.workingHours(cache, apt.ServiceID)
		if err != nil {
			return scheduler.WorkingHours{}, err
		}
		if i == 0 {
			hours = wh
			continue
		}
		hours.Start = max(hours.Start, wh.Start)
		hours.End = min(hours.End, wh.End)
	}
	if hours.Start >= hours.End {
		return scheduler.WorkingHours{}, fmt.Errorf("%w: 同一天的预约所属服务没有共同的营业时间", scheduler.ErrWorkingHoursExceeded)
	}
	return hours, nil
}

func (r *Reorderer) today() time.Time {
	return scheduler.DateOf(r.opts.Now().In(r.opts.Location))
}

func (r *Reorderer) notify(apt *domain.Appointment, a scheduler.Assignment) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(apt, a.Date, a.StartClock())
}
