package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
)

// 时间列统一转换为 15:04:05 格式的字符串，避免不同驱动对 time 类型的解析差异
const appointmentColumns = `
	id,
	service_id,
	client_id,
	date,
	to_char(start_time, 'HH24:MI:SS'),
	to_char(end_time, 'HH24:MI:SS'),
	duration,
	status,
	created_at,
	updated_at,
	version
`

func scanAppointment(scanner interface{ Scan(...any) error }) (*domain.Appointment, error) {
	apt := &domain.Appointment{}
	dst := []any{
		&apt.ID,
		&apt.ServiceID,
		&apt.ClientID,
		&apt.Date,
		&apt.StartTime,
		&apt.EndTime,
		&apt.Duration,
		&apt.Status,
		&apt.CreatedAt,
		&apt.UpdatedAt,
		&apt.Version,
	}
	if err := scanner.Scan(dst...); err != nil {
		return nil, err
	}
	return apt, nil
}

func (r *Repository) queryAppointments(query string, args ...any) ([]*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, apt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

// FetchCancelledAppointments 按创建时间从早到晚返回所有已取消的预约
func (r *Repository) FetchCancelledAppointments() ([]*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.queryAppointments(query, domain.StatusCancelled)
}

// FetchAllAppointmentsOrdered 按 (date, start_time) 从早到晚返回所有预约
func (r *Repository) FetchAllAppointmentsOrdered() ([]*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		ORDER BY date ASC, start_time ASC, id ASC
	`
	return r.queryAppointments(query)
}

func (r *Repository) GetAppointmentsByClientID(clientID int64) ([]*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE client_id = $1
		ORDER BY date ASC, start_time ASC, id ASC
	`
	return r.queryAppointments(query, clientID)
}

func (r *Repository) GetAppointmentByID(id int64) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanAppointment(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) CreateAppointment(apt *domain.Appointment) error {
	query := `
		INSERT INTO appointments (service_id, client_id, date, start_time, end_time, duration, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		apt.ServiceID,
		apt.ClientID,
		apt.Date,
		apt.StartTime,
		apt.EndTime,
		apt.Duration,
		apt.Status,
	}
	dst := []any{&apt.ID, &apt.CreatedAt, &apt.UpdatedAt, &apt.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// UpdateAppointment 只更新 updates 中不为 nil 的字段，预约不存在时返回 sql.ErrNoRows
func (r *Repository) UpdateAppointment(id int64, updates *domain.AppointmentUpdates) error {
	query := `
		UPDATE appointments
		SET
			date = COALESCE($1::date, date),
			start_time = COALESCE($2::time, start_time),
			end_time = COALESCE($3::time, end_time),
			status = COALESCE($4::text, status),
			updated_at = $5,
			version = version + 1
		WHERE id = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var status *string
	if updates.Status != nil {
		s := string(*updates.Status)
		status = &s
	}

	params := []any{
		updates.Date,
		updates.StartTime,
		updates.EndTime,
		status,
		updates.UpdatedAt,
		id,
	}

	var version int32
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&version); err != nil {
		return err
	}

	return nil
}

// ConfirmAppointment 由客户确认改期后的预约，只有处于待确认状态的预约才会被更新
func (r *Repository) ConfirmAppointment(apt *domain.Appointment) error {
	query := `
		UPDATE appointments
		SET
			status = $1,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{domain.StatusScheduled, apt.ID, apt.Version, domain.StatusPendingConfirmation}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&apt.UpdatedAt, &apt.Version); err != nil {
		return err
	}
	apt.Status = domain.StatusScheduled

	return nil
}

// DeleteAppointment 属于取消流程，调度器不会调用
func (r *Repository) DeleteAppointment(id int64) error {
	query := `
		DELETE FROM appointments WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
