package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
)

func ValidateServiceTime(svc *domain.Service) error {
	startTime, err := time.Parse("15:04:05", svc.StartTime)
	if err != nil {
		return errors.New("营业开始时间格式错误")
	}
	endTime, err := time.Parse("15:04:05", svc.EndTime)
	if err != nil {
		return errors.New("营业结束时间格式错误")
	}
	if !endTime.After(startTime) {
		return errors.New("营业结束时间必须晚于营业开始时间")
	}

	// 默认时长不能超过一天的营业时长，否则自动排期无法放下该服务的预约
	if svc.Duration <= 0 {
		return errors.New("服务时长必须大于 0")
	}
	if time.Duration(svc.Duration)*time.Minute > endTime.Sub(startTime) {
		return errors.New("服务时长超过了营业时长")
	}

	return nil
}

/**
 * ResolveCustomOrder 将前端提交的 ID 顺序还原成预约列表：
 * 		1. ID 不能重复
 * 		2. 提交的 ID 必须恰好是当前所有未取消的预约，不能多也不能少
 */
func ResolveCustomOrder(all []*domain.Appointment, ids []int64) ([]*domain.Appointment, error) {
	active := make(map[int64]*domain.Appointment, len(all))
	for _, apt := range all {
		if apt.Status != domain.StatusCancelled {
			active[apt.ID] = apt
		}
	}

	seen := make(map[int64]bool, len(ids))
	ordered := make([]*domain.Appointment, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("预约 %d 重复出现", id)
		}
		seen[id] = true

		apt, ok := active[id]
		if !ok {
			return nil, fmt.Errorf("预约 %d 不存在或已取消", id)
		}
		ordered = append(ordered, apt)
	}

	if len(ordered) != len(active) {
		return nil, errors.New("预约列表已发生变化，请刷新后重试")
	}

	return ordered, nil
}
