package reorder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
)

type AutoResult struct {
	BatchID      uuid.UUID             `json:"batchID"`
	Candidates   int                   `json:"candidates"`
	Reordered    int                   `json:"reordered"`
	Skipped      []int64               `json:"skipped"`
	Appointments []*domain.Appointment `json:"appointments"`
}

// NothingToDo 表示没有任何已取消的预约可以重新排期
func (res *AutoResult) NothingToDo() bool {
	return res.Candidates == 0
}

/**
 * RunAuto 将所有已取消的预约按创建时间从早到晚压缩到从今天开始的最早时段：
 * 		1. 获取失败时直接返回错误，不做任何修改
 * 		2. 营业时间取第一个候选预约所属服务的营业时间，取不到时使用默认值
 * 		3. 先算出全部时段，再逐个保存，保存成功的预约状态改为 PENDING_CONFIRMATION 并通知客户
 * 		4. 单个预约保存失败只记录日志并跳过
 */
func (r *Reorderer) RunAuto() (*AutoResult, error) {
	res := &AutoResult{
		BatchID:      uuid.New(),
		Skipped:      make([]int64, 0),
		Appointments: make([]*domain.Appointment, 0),
	}
	logger := slog.With("batch", res.BatchID.String(), "policy", "auto")

	candidates, err := r.store.FetchCancelledAppointments()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchCandidates, err)
	}
	res.Candidates = len(candidates)
	if len(candidates) == 0 {
		logger.Info("没有需要重新排期的预约")
		return res, nil
	}

	cache := newServiceCache(r.services)

	hours, err := r.workingHours(cache, candidates[0].ServiceID)
	if err != nil {
		return nil, err
	}

	requests := make([]scheduler.Request, len(candidates))
	for i, apt := range candidates {
		d, err := duration(apt, 0)
		if err == nil && apt.Duration == 0 {
			d, err = r.serviceDuration(cache, apt.ServiceID)
		}
		if err != nil {
			return nil, fmt.Errorf("预约 %d: %w", apt.ID, err)
		}
		requests[i] = scheduler.Request{ID: apt.ID, Duration: d}
	}

	assignments, err := scheduler.Allocate(r.today(), requests, hours, scheduler.Options{Rollover: true})
	if err != nil {
		return nil, err
	}

	status := domain.StatusPendingConfirmation
	for i, a := range assignments {
		apt := candidates[i]
		date := a.Date
		start := a.StartClock()
		end := a.EndClock()
		now := r.opts.Now()

		updates := &domain.AppointmentUpdates{
			Date:      &date,
			StartTime: &start,
			EndTime:   &end,
			Status:    &status,
			UpdatedAt: now,
		}
		if err := r.store.UpdateAppointment(apt.ID, updates); err != nil {
			logger.Error("无法保存重新排期的预约，已跳过", "appointment_id", apt.ID, "error", err)
			res.Skipped = append(res.Skipped, apt.ID)
			continue
		}

		updated := *apt
		updated.Date = date
		updated.StartTime = start
		updated.EndTime = end
		updated.Status = status
		updated.UpdatedAt = now
		if updated.Duration == 0 {
			updated.Duration = int32((a.End - a.Start) / time.Minute)
		}

		res.Reordered++
		res.Appointments = append(res.Appointments, &updated)
		r.notify(&updated, a)
	}

	logger.Info("自动重新排期完成", "hours", hours.String(), "candidates", res.Candidates, "reordered", res.Reordered, "skipped", len(res.Skipped))
	return res, nil
}
