package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/reorder"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/scheduler"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})
	mw := h.RequiredRole([]domain.Role{domain.RoleAdmin})(next)

	tests := []struct {
		role    domain.Role
		success bool
	}{
		{domain.RoleAdmin, true},
		{domain.RoleStaff, false},
		{domain.RoleClient, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/appointments/reorder/auto", nil)
			req = req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(tt.role)))
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.success, resp.Success)
			if !tt.success {
				assert.Equal(t, "权限不足", resp.Message)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHandler(t)

	var gotRole, gotSub string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.Context().Value(RoleCtxKey).(string)
		gotSub = r.Context().Value(SubCtxKey).(string)
		h.successResponse(w, r, "ok", nil)
	})
	mw := h.auth(next)

	// 未登录
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-info", nil))
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	// 令牌无效
	req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "not-a-jwt"})
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	resp = decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)

	// 正常登录
	ss, _, err := h.signToken(42, string(domain.RoleAdmin))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: ss})
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	resp = decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, string(domain.RoleAdmin), gotRole)
	assert.Equal(t, "42", gotSub)
}

func TestRunCustomReorder_RejectsMalformedBody(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"不是 JSON", `{"appointmentIDs":`},
		{"缺少字段", `{}`},
		{"ID 不合法", `{"appointmentIDs":[1,0]}`},
		{"未知字段", `{"ids":[1,2]}`},
		{"类型错误", `{"appointmentIDs":"1,2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/appointments/reorder/custom", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.RunCustomReorder(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestReorderError(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"当天放不下", fmt.Errorf("2026-03-02: %w", scheduler.ErrWorkingHoursExceeded), http.StatusOK},
		{"营业时间不合法", scheduler.ErrInvalidWorkingHours, http.StatusOK},
		{"顺序不合法", fmt.Errorf("%w: 预约 3 已取消", reorder.ErrInvalidOrder), http.StatusOK},
		{"数据库错误", fmt.Errorf("%w: %w", reorder.ErrFetchCandidates, errors.New("connection refused")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.reorderError(rec, httptest.NewRequest(http.MethodPost, "/appointments/reorder/auto", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.err.Error(), resp.Message)
			} else {
				assert.Equal(t, "服务器内部错误", resp.Message)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := newTestHandler(t)
	mw := h.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() { mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
