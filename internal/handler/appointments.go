package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/lock"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/reorder"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/utils"
)

func (h *Handler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.repository.FetchAllAppointmentsOrdered()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取预约列表成功", appointments)
}

func (h *Handler) RunAutoReorder(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireBatchLock(w, r)
	if !ok {
		return
	}
	defer release()

	res, err := h.reorderer.RunAuto()
	if err != nil {
		h.reorderError(w, r, err)
		return
	}

	if res.NothingToDo() {
		h.successResponse(w, r, "没有需要重新排期的预约", res)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("成功重新排期 %d 个预约", res.Reordered), res)
}

func (h *Handler) RunCustomReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentIDs []int64 `json:"appointmentIDs" validate:"required,dive,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	release, ok := h.acquireBatchLock(w, r)
	if !ok {
		return
	}
	defer release()

	// 在持有锁的情况下读取当前列表，保证提交的顺序和数据库中的预约一一对应
	all, err := h.repository.FetchAllAppointmentsOrdered()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	newOrder, err := utils.ResolveCustomOrder(all, req.AppointmentIDs)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.reorderer.RunCustom(newOrder)
	if err != nil {
		if errors.Is(err, reorder.ErrCustomReorderAborted) {
			// 部分预约可能已经保存，返回重新获取的列表让前端刷新
			h.logInternalServerError(r, err)
			h.failureResponse(w, r, "保存自定义排序失败，已刷新为最新的预约列表", res)
			return
		}
		h.reorderError(w, r, err)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("保存自定义排序成功，共调整 %d 个预约", res.Updated), res)
}

func (h *Handler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	apt := r.Context().Value(AppointmentCtx).(*domain.Appointment)

	if apt.ClientID != myInfo.ID {
		h.errorResponse(w, r, "只能确认自己的预约")
		return
	}
	if apt.Status != domain.StatusPendingConfirmation {
		h.errorResponse(w, r, "该预约不需要确认")
		return
	}

	if err := h.repository.ConfirmAppointment(apt); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "预约已被修改，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "确认预约成功", apt)
}

func (h *Handler) acquireBatchLock(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.batchLock == nil {
		return func() {}, true
	}

	release, err := h.batchLock.Acquire()
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrLocked):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return release, true
}

// reorderError 将调度相关的错误转换为用户可读的响应，其余错误视为服务器内部错误
func (h *Handler) reorderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scheduler.ErrInvalidDuration),
		errors.Is(err, scheduler.ErrInvalidWorkingHours),
		errors.Is(err, scheduler.ErrInvalidBuffer),
		errors.Is(err, scheduler.ErrDurationExceedsWorkingHours),
		errors.Is(err, scheduler.ErrWorkingHoursExceeded),
		errors.Is(err, reorder.ErrInvalidOrder):
		h.errorResponse(w, r, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}
