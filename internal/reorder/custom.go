package reorder

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
)

type CustomResult struct {
	BatchID   uuid.UUID `json:"batchID"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	// 成功时为按新顺序排列的预约；保存失败时为重新从数据库获取的完整列表
	Appointments []*domain.Appointment `json:"appointments"`
}

// dateGroup 是同一天的预约，保持它们在拖拽结果中的相对顺序
type dateGroup struct {
	date         time.Time
	appointments []*domain.Appointment
	assignments  []scheduler.Assignment
}

// partitionByDate 按日期稳定分组，组的顺序为该日期第一次出现的顺序
func partitionByDate(appointments []*domain.Appointment) []*dateGroup {
	groups := make([]*dateGroup, 0)
	index := make(map[time.Time]*dateGroup)

	for _, apt := range appointments {
		date := scheduler.DateOf(apt.Date)
		g, exists := index[date]
		if !exists {
			g = &dateGroup{date: date}
			index[date] = g
			groups = append(groups, g)
		}
		g.appointments = append(g.appointments, apt)
	}

	return groups
}

func validateOrder(newOrder []*domain.Appointment) error {
	seen := make(map[int64]bool, len(newOrder))
	for i, apt := range newOrder {
		if apt == nil {
			return fmt.Errorf("%w: 第 %d 项为空", ErrInvalidOrder, i+1)
		}
		if seen[apt.ID] {
			return fmt.Errorf("%w: 预约 %d 重复出现", ErrInvalidOrder, apt.ID)
		}
		if apt.Status == domain.StatusCancelled {
			return fmt.Errorf("%w: 预约 %d 已取消", ErrInvalidOrder, apt.ID)
		}
		seen[apt.ID] = true
	}
	return nil
}

/**
 * RunCustom 按用户拖拽后的顺序重新计算每个预约在当天的开始时间：
 * 		1. 按日期稳定分组，预约的日期不会被修改
 * 		2. 每组从组内各服务营业时间交集的开始时间出发，相邻预约之间留出固定间隔，当天放不下时报错
 * 		3. 只有开始或结束时间发生变化的预约才会被保存并通知
 * 		4. 某一组保存失败时放弃该组剩余的保存，最后重新获取完整列表并返回错误
 */
func (r *Reorderer) RunCustom(newOrder []*domain.Appointment) (*CustomResult, error) {
	res := &CustomResult{
		BatchID:      uuid.New(),
		Appointments: make([]*domain.Appointment, 0, len(newOrder)),
	}
	logger := slog.With("batch", res.BatchID.String(), "policy", "custom")

	if err := validateOrder(newOrder); err != nil {
		return nil, err
	}
	if len(newOrder) == 0 {
		return res, nil
	}

	cache := newServiceCache(r.services)
	groups := partitionByDate(newOrder)

	// 在任何写入之前先算出所有分组的时段
	for _, g := range groups {
		hours, err := r.groupHours(cache, g.appointments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.date.Format(time.DateOnly), err)
		}

		requests := make([]scheduler.Request, len(g.appointments))
		for i, apt := range g.appointments {
			d, err := duration(apt, r.opts.DefaultDuration)
			if err != nil {
				return nil, fmt.Errorf("预约 %d: %w", apt.ID, err)
			}
			requests[i] = scheduler.Request{ID: apt.ID, Duration: d}
		}

		assignments, err := scheduler.Allocate(g.date, requests, hours, scheduler.Options{Buffer: r.opts.CustomBuffer})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.date.Format(time.DateOnly), err)
		}
		g.assignments = assignments
	}

	updatedByID := make(map[int64]*domain.Appointment, len(newOrder))
	var errs []error

	for _, g := range groups {
		for i, a := range g.assignments {
			apt := g.appointments[i]
			start := a.StartClock()
			end := a.EndClock()

			if sameClock(apt.StartTime, a.Start) && sameClock(apt.EndTime, a.End) {
				res.Unchanged++
				continue
			}

			now := r.opts.Now()
			updates := &domain.AppointmentUpdates{
				StartTime: &start,
				EndTime:   &end,
				UpdatedAt: now,
			}
			if err := r.store.UpdateAppointment(apt.ID, updates); err != nil {
				logger.Error("无法保存自定义排序，放弃当天剩余的保存", "appointment_id", apt.ID, "date", g.date.Format(time.DateOnly), "error", err)
				errs = append(errs, fmt.Errorf("预约 %d: %w", apt.ID, err))
				break
			}

			updated := *apt
			updated.StartTime = start
			updated.EndTime = end
			updated.UpdatedAt = now
			updatedByID[apt.ID] = &updated

			res.Updated++
			r.notify(&updated, a)
		}
	}

	if len(errs) > 0 {
		// 部分写入可能已经生效，重新获取以和数据库保持一致
		refreshed, err := r.store.FetchAllAppointmentsOrdered()
		if err != nil {
			logger.Error("重新获取预约列表失败", "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrFetchCandidates, err))
		} else {
			res.Appointments = refreshed
		}
		return res, fmt.Errorf("%w: %w", ErrCustomReorderAborted, errors.Join(errs...))
	}

	for _, apt := range newOrder {
		if updated, ok := updatedByID[apt.ID]; ok {
			res.Appointments = append(res.Appointments, updated)
		} else {
			res.Appointments = append(res.Appointments, apt)
		}
	}

	logger.Info("自定义排序完成", "groups", len(groups), "updated", res.Updated, "unchanged", res.Unchanged)
	return res, nil
}

func sameClock(stored string, d time.Duration) bool {
	parsed, err := scheduler.ParseClock(stored)
	if err != nil {
		return false
	}
	return parsed == d
}
