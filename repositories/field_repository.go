package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5v5games/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrFieldNotFound = errors.New("field not found")
	// Поле нельзя удалить, пока на него ссылаются турниры (FK RESTRICT).
	ErrFieldInUse = errors.New("field is referenced by existing tournaments")
)

type FieldRepository interface {
	Create(ctx context.Context, field *models.Field) error
	GetByID(ctx context.Context, id int) (*models.Field, error)
	List(ctx context.Context) ([]*models.Field, error)
	Update(ctx context.Context, field *models.Field) error
	UpdateImageKey(ctx context.Context, fieldID int, imageKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresFieldRepository struct {
	db *sql.DB
}

func NewPostgresFieldRepository(db *sql.DB) FieldRepository {
	return &postgresFieldRepository{db: db}
}

func (r *postgresFieldRepository) Create(ctx context.Context, f *models.Field) error {
	query := `
		INSERT INTO fields (name, description, location, image_key, price_per_hour)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		f.Name, f.Description, f.Location, f.ImageKey, f.PricePerHour,
	).Scan(&f.ID)
}

func (r *postgresFieldRepository) GetByID(ctx context.Context, id int) (*models.Field, error) {
	query := `
		SELECT id, name, description, location, image_key, price_per_hour
		FROM fields
		WHERE id = $1`

	f := &models.Field{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Description, &f.Location, &f.ImageKey, &f.PricePerHour,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *postgresFieldRepository) List(ctx context.Context) ([]*models.Field, error) {
	query := `
		SELECT id, name, description, location, image_key, price_per_hour
		FROM fields
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make([]*models.Field, 0)
	for rows.Next() {
		var f models.Field
		if scanErr := rows.Scan(
			&f.ID, &f.Name, &f.Description, &f.Location, &f.ImageKey, &f.PricePerHour,
		); scanErr != nil {
			return nil, scanErr
		}
		fields = append(fields, &f)
	}
	return fields, rows.Err()
}

func (r *postgresFieldRepository) Update(ctx context.Context, f *models.Field) error {
	query := `
		UPDATE fields
		SET name = $1, description = $2, location = $3, price_per_hour = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		f.Name, f.Description, f.Location, f.PricePerHour, f.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFieldNotFound)
}

func (r *postgresFieldRepository) UpdateImageKey(ctx context.Context, fieldID int, imageKey *string) error {
	query := `UPDATE fields SET image_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, fieldID)
	if err != nil {
		return fmt.Errorf("failed to update field image key: %w", err)
	}
	return checkAffectedRows(result, ErrFieldNotFound)
}

func (r *postgresFieldRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fields WHERE id = $1`, id)
	if err != nil {
		// Слоты и сессии каскадятся; турниры запрещают удаление.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrFieldInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrFieldNotFound)
}
