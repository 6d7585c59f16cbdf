package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
)

func (r *Repository) InsertNotification(n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, is_read, appointment_id, action_required, new_date, new_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{n.UserID, n.Message, n.IsRead, n.AppointmentID, n.ActionRequired, n.NewDate, n.NewTime, n.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&n.ID); err != nil {
		return err
	}

	return nil
}

// GetNotificationsByUserID 按时间倒序返回用户的通知
func (r *Repository) GetNotificationsByUserID(userID int64) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, message, is_read, appointment_id, action_required, new_date, to_char(new_time, 'HH24:MI:SS'), created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		var (
			appointmentID sql.NullInt64
			newDate       sql.NullTime
			newTime       sql.NullString
		)
		dst := []any{&n.ID, &n.UserID, &n.Message, &n.IsRead, &appointmentID, &n.ActionRequired, &newDate, &newTime, &n.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if appointmentID.Valid {
			n.AppointmentID = &appointmentID.Int64
		}
		if newDate.Valid {
			n.NewDate = &newDate.Time
		}
		if newTime.Valid {
			n.NewTime = &newTime.String
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkNotificationRead 只能标记属于该用户的通知，否则返回 sql.ErrNoRows
func (r *Repository) MarkNotificationRead(id, userID int64) error {
	query := `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id, userID)
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
