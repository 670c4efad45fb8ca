package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/cache"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/errors"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/metrics"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for patients, with a
// read-through cache in front of single-record lookups
type Repository struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

// NewRepository creates a new patient repository. cache may be nil,
// in which case all reads go to the database.
func NewRepository(pool *pgxpool.Pool, c *cache.Cache) *Repository {
	return &Repository{pool: pool, cache: c}
}

func cacheKey(id types.ID) string {
	return "patient:" + id.String()
}

// Create registers a new patient
func (r *Repository) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (id, name, phone, email, age, sex, height_cm, clinic_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Phone, p.Email, p.Age, p.Sex, p.HeightCm, p.ClinicID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("patient with this ID already exists")
		}
		return errors.Wrap(err, "failed to create patient")
	}

	return nil
}

// Get retrieves a patient by ID, consulting the cache first
func (r *Repository) Get(ctx context.Context, id types.ID) (*Patient, error) {
	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cacheKey(id)); err == nil {
			var p Patient
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.RecordCacheLookup("hit")
				return &p, nil
			}
		}
		metrics.RecordCacheLookup("miss")
	}

	query := `
		SELECT id, name, phone, email, age, sex, height_cm, clinic_id,
			created_at, updated_at
		FROM patients
		WHERE id = $1`

	p := &Patient{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Email, &p.Age, &p.Sex, &p.HeightCm, &p.ClinicID,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get patient")
	}

	if r.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			r.cache.Set(ctx, cacheKey(id), data)
		}
	}

	return p, nil
}

// Update updates a patient and invalidates the cached record
func (r *Repository) Update(ctx context.Context, p *Patient) error {
	query := `
		UPDATE patients SET
			name = $2, phone = $3, email = $4,
			age = $5, sex = $6, height_cm = $7, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Phone, p.Email, p.Age, p.Sex, p.HeightCm,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update patient")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("patient", p.ID.String())
	}

	if r.cache != nil {
		r.cache.Delete(ctx, cacheKey(p.ID))
	}

	return nil
}

// Delete removes a patient and their diagnosis history
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete patient")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("patient", id.String())
	}

	if r.cache != nil {
		r.cache.Delete(ctx, cacheKey(id))
	}

	return nil
}

// List lists patients with optional filters
func (r *Repository) List(ctx context.Context, filter ListPatientsFilter) ([]Patient, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.ClinicID != nil {
		conditions = append(conditions, fmt.Sprintf("clinic_id = $%d", argNum))
		args = append(args, *filter.ClinicID)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM patients %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count patients")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, phone, email, age, sex, height_cm, clinic_id,
			created_at, updated_at
		FROM patients
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list patients")
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(
			&p.ID, &p.Name, &p.Phone, &p.Email, &p.Age, &p.Sex, &p.HeightCm, &p.ClinicID,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan patient")
		}
		patients = append(patients, p)
	}

	return patients, total, nil
}
