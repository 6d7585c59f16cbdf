package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	dbpool, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbpool.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbpool.PingContext(ctx); err != nil {
		t.Skipf("Failed to ping test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = dbpool.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	_, err = dbpool.ExecContext(ctx, "TRUNCATE notifications, appointments, services, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	return NewRepository(cfg, dbpool)
}

func seedFixtures(t *testing.T, r *Repository) (*domain.Service, *domain.User) {
	t.Helper()

	svc := &domain.Service{Name: "Haircut", Duration: 30, StartTime: "09:00:00", EndTime: "17:00:00"}
	require.NoError(t, r.CreateService(svc))

	name := "client_" + uuid.NewString()[:8]
	client := &domain.User{Username: name, PasswordHash: "x", FullName: "王芳", Email: name + "@example.com", Role: domain.RoleClient}
	require.NoError(t, r.CreateUser(client))

	return svc, client
}

func TestRepository_AppointmentOrdering(t *testing.T) {
	r := setupTestDB(t)
	svc, client := seedFixtures(t, r)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	insert := func(date time.Time, start, end string, status domain.AppointmentStatus) *domain.Appointment {
		apt := &domain.Appointment{ServiceID: svc.ID, ClientID: client.ID, Date: date, StartTime: start, EndTime: end, Duration: 30, Status: status}
		require.NoError(t, r.CreateAppointment(apt))
		return apt
	}

	c := insert(day.AddDate(0, 0, 1), "09:00:00", "09:30:00", domain.StatusCancelled)
	a := insert(day, "11:00:00", "11:30:00", domain.StatusScheduled)
	b := insert(day, "09:30:00", "10:00:00", domain.StatusCancelled)

	cancelled, err := r.FetchCancelledAppointments()
	require.NoError(t, err)
	require.Len(t, cancelled, 2)
	assert.Equal(t, c.ID, cancelled[0].ID)
	assert.Equal(t, b.ID, cancelled[1].ID)

	all, err := r.FetchAllAppointmentsOrdered()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "09:30:00", all[0].StartTime)
	assert.True(t, all[0].Date.Equal(day))
}

func TestRepository_UpdateAppointmentOnlyTouchesGivenFields(t *testing.T) {
	r := setupTestDB(t)
	svc, client := seedFixtures(t, r)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	apt := &domain.Appointment{ServiceID: svc.ID, ClientID: client.ID, Date: day, StartTime: "14:00:00", EndTime: "14:30:00", Duration: 30, Status: domain.StatusCancelled}
	require.NoError(t, r.CreateAppointment(apt))

	start, end := "09:00:00", "09:30:00"
	updatedAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, r.UpdateAppointment(apt.ID, &domain.AppointmentUpdates{StartTime: &start, EndTime: &end, UpdatedAt: updatedAt}))

	got, err := r.GetAppointmentByID(apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", got.StartTime)
	assert.Equal(t, "09:30:00", got.EndTime)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.True(t, got.Date.Equal(day))
	assert.Equal(t, apt.Version+1, got.Version)

	newDate := day.AddDate(0, 0, 3)
	status := domain.StatusPendingConfirmation
	require.NoError(t, r.UpdateAppointment(apt.ID, &domain.AppointmentUpdates{Date: &newDate, Status: &status, UpdatedAt: updatedAt}))

	got, err = r.GetAppointmentByID(apt.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(newDate))
	assert.Equal(t, domain.StatusPendingConfirmation, got.Status)
	assert.Equal(t, "09:00:00", got.StartTime)

	// 客户确认后变为已预约
	require.NoError(t, r.ConfirmAppointment(got))
	assert.Equal(t, domain.StatusScheduled, got.Status)

	err = r.UpdateAppointment(apt.ID+1000, &domain.AppointmentUpdates{UpdatedAt: updatedAt})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, r.DeleteAppointment(apt.ID))
	assert.ErrorIs(t, r.DeleteAppointment(apt.ID), sql.ErrNoRows)
}

func TestRepository_Notifications(t *testing.T) {
	r := setupTestDB(t)
	svc, client := seedFixtures(t, r)

	apt := &domain.Appointment{ServiceID: svc.ID, ClientID: client.ID, Date: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), StartTime: "09:00:00", EndTime: "09:30:00", Status: domain.StatusPendingConfirmation}
	require.NoError(t, r.CreateAppointment(apt))

	newDate := apt.Date
	newTime := "09:00:00"
	n := &domain.Notification{
		UserID:         client.ID,
		Message:        "Your Haircut appointment has been rescheduled to Mar 02, 2026 at 9:00 AM. Please confirm the new time.",
		AppointmentID:  &apt.ID,
		ActionRequired: true,
		NewDate:        &newDate,
		NewTime:        &newTime,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, r.InsertNotification(n))
	assert.NotZero(t, n.ID)

	got, err := r.GetNotificationsByUserID(client.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsRead)
	assert.True(t, got[0].ActionRequired)
	assert.Equal(t, apt.ID, *got[0].AppointmentID)
	assert.Equal(t, "09:00:00", *got[0].NewTime)

	assert.ErrorIs(t, r.MarkNotificationRead(n.ID, client.ID+1), sql.ErrNoRows)
	require.NoError(t, r.MarkNotificationRead(n.ID, client.ID))

	got, err = r.GetNotificationsByUserID(client.ID)
	require.NoError(t, err)
	assert.True(t, got[0].IsRead)
}

func TestRepository_ServiceLookup(t *testing.T) {
	r := setupTestDB(t)
	svc, _ := seedFixtures(t, r)

	got, err := r.GetServiceByID(svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", got.StartTime)
	assert.Equal(t, "17:00:00", got.EndTime)
	assert.Equal(t, int32(30), got.Duration)

	_, err = r.GetServiceByID(svc.ID + 1000)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepository_CreateAppointmentRejectsOutOfRangeDuration(t *testing.T) {
	r := setupTestDB(t)
	svc, client := seedFixtures(t, r)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	for _, d := range []int32{-10, 24*60 + 1, 307445735} {
		apt := &domain.Appointment{ServiceID: svc.ID, ClientID: client.ID, Date: day, StartTime: "09:00:00", EndTime: "09:30:00", Duration: d, Status: domain.StatusCancelled}
		assert.Error(t, r.CreateAppointment(apt), "duration %d", d)
	}
}
