package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
)

const serviceColumns = `
	id,
	name,
	duration,
	to_char(start_time, 'HH24:MI:SS'),
	to_char(end_time, 'HH24:MI:SS'),
	created_at,
	version
`

func scanService(scanner interface{ Scan(...any) error }) (*domain.Service, error) {
	svc := &domain.Service{}
	dst := []any{&svc.ID, &svc.Name, &svc.Duration, &svc.StartTime, &svc.EndTime, &svc.CreatedAt, &svc.Version}
	if err := scanner.Scan(dst...); err != nil {
		return nil, err
	}
	return svc, nil
}

func (r *Repository) GetServiceByID(id int64) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanService(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetAllServices() ([]*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY id ASC`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]*domain.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *Repository) CreateService(svc *domain.Service) error {
	query := `
		INSERT INTO services (name, duration, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{svc.Name, svc.Duration, svc.StartTime, svc.EndTime}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&svc.ID, &svc.CreatedAt, &svc.Version); err != nil {
		return err
	}

	return nil
}
