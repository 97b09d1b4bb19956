package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

// Repository implements videoingest.Repository using PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Error handling helper
func mapPostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.TableName == "users" {
				return videoingest.ErrUserExists
			}
			return videoingest.ErrAssetExists
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("constraint %s violated", pgErr.ConstraintName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// FinalizeAsset inserts the asset row and bulk-inserts its telemetry batch
// inside one transaction. Any failure rolls the whole transaction back: no
// asset row without its telemetry, no telemetry without its asset row.
func (r *Repository) FinalizeAsset(ctx context.Context, asset *videoingest.Asset, points []videoingest.TelemetryPoint) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPostgresError("finalize asset", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO assets (asset_id, start_utc, duration_sec, object_path, device_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = tx.Exec(ctx, query,
		asset.ID, asset.StartUTC, asset.DurationSec, asset.ObjectPath,
		nullableString(asset.DeviceID), asset.CreatedAt)
	if err != nil {
		return mapPostgresError("insert asset", err)
	}

	if len(points) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"telemetry_points"},
			[]string{"asset_id", "ts", "latitude", "longitude", "rel_offset_sec"},
			pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
				p := points[i]
				return []any{p.AssetID, p.Timestamp, p.Latitude, p.Longitude, p.RelOffsetSec}, nil
			}),
		)
		if err != nil {
			return mapPostgresError("insert telemetry batch", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPostgresError("commit finalize", err)
	}

	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*videoingest.Asset, error) {
	query := `
		SELECT asset_id, start_utc, duration_sec, object_path, COALESCE(device_id, ''), created_at
		FROM assets WHERE asset_id = $1`

	var asset videoingest.Asset
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.StartUTC, &asset.DurationSec,
		&asset.ObjectPath, &asset.DeviceID, &asset.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, videoingest.ErrAssetNotFound
		}
		return nil, mapPostgresError("get asset", err)
	}

	return &asset, nil
}

func (r *Repository) ListTelemetryByAsset(ctx context.Context, assetID uuid.UUID) ([]*videoingest.TelemetryPoint, error) {
	query := `
		SELECT asset_id, ts, latitude, longitude, rel_offset_sec
		FROM telemetry_points WHERE asset_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, mapPostgresError("list telemetry", err)
	}
	defer rows.Close()

	var points []*videoingest.TelemetryPoint
	for rows.Next() {
		var p videoingest.TelemetryPoint
		if err := rows.Scan(&p.AssetID, &p.Timestamp, &p.Latitude, &p.Longitude, &p.RelOffsetSec); err != nil {
			return nil, mapPostgresError("scan telemetry", err)
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError("list telemetry", err)
	}

	return points, nil
}

// Reference-table reads

func (r *Repository) ListMaintenanceCrews(ctx context.Context, limit int) ([]*videoingest.MaintenanceCrew, error) {
	query := `
		SELECT id, sri, start_milepost, end_milepost, crew_type, crew_id, last_update_date
		FROM maintenance_crews
		ORDER BY last_update_date DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, mapPostgresError("list maintenance crews", err)
	}
	defer rows.Close()

	var crews []*videoingest.MaintenanceCrew
	for rows.Next() {
		var c videoingest.MaintenanceCrew
		if err := rows.Scan(&c.ID, &c.SRI, &c.StartMilepost, &c.EndMilepost,
			&c.CrewType, &c.CrewID, &c.LastUpdate); err != nil {
			return nil, mapPostgresError("scan maintenance crew", err)
		}
		crews = append(crews, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError("list maintenance crews", err)
	}

	return crews, nil
}

func (r *Repository) ListRoadSegments(ctx context.Context, limit int) ([]*videoingest.RoadSegment, error) {
	query := `
		SELECT id, sri, start_milepost, end_milepost, direction, name, COALESCE(parent_sri, ''), last_update_date
		FROM road_segments
		ORDER BY last_update_date DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, mapPostgresError("list road segments", err)
	}
	defer rows.Close()

	var segments []*videoingest.RoadSegment
	for rows.Next() {
		var s videoingest.RoadSegment
		if err := rows.Scan(&s.ID, &s.SRI, &s.StartMilepost, &s.EndMilepost,
			&s.Direction, &s.Name, &s.ParentSRI, &s.LastUpdate); err != nil {
			return nil, mapPostgresError("scan road segment", err)
		}
		segments = append(segments, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError("list road segments", err)
	}

	return segments, nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *videoingest.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		nullableString(user.Phone), user.CreatedAt)
	if err != nil {
		return mapPostgresError("create user", err)
	}

	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*videoingest.User, error) {
	query := `
		SELECT id, username, email, password_hash, COALESCE(phone, ''), created_at
		FROM users WHERE email = $1`

	var user videoingest.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Phone, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, videoingest.ErrUserNotFound
		}
		return nil, mapPostgresError("get user", err)
	}

	return &user, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
