package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/model"
)

const packageColumns = `name, version, description, dependencies, size, checksum,
	install_path, files, download_url, filename, install_date, status`

// UpsertInstalled inserts rec or replaces the existing record with the same name.
func (s *Store) UpsertInstalled(ctx context.Context, rec *model.InstalledPackage) error {
	deps, err := json.Marshal(rec.Dependencies)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Name, err)
	}
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Name, err)
	}
	status := rec.Status
	if status == "" {
		status = model.StatusInstalled
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			description = excluded.description,
			dependencies = excluded.dependencies,
			size = excluded.size,
			checksum = excluded.checksum,
			install_path = excluded.install_path,
			files = excluded.files,
			download_url = excluded.download_url,
			filename = excluded.filename,
			install_date = excluded.install_date,
			status = excluded.status
	`,
		rec.Name,
		rec.Version,
		rec.Description,
		string(deps),
		rec.Size,
		rec.Checksum,
		rec.InstallPath,
		string(files),
		rec.DownloadURL,
		rec.Filename,
		rec.InstalledAt.UTC().Format(time.RFC3339Nano),
		string(status),
	)
	if err != nil {
		return unavailable(fmt.Errorf("upsert %s: %w", rec.Name, err))
	}
	return nil
}

// GetInstalled returns the record for name or ErrNotInstalled.
func (s *Store) GetInstalled(ctx context.Context, name string) (*model.InstalledPackage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE name = ?`, name)
	rec, err := scanInstalled(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrNotInstalled)
	}
	if err != nil {
		return nil, unavailable(fmt.Errorf("get %s: %w", name, err))
	}
	return rec, nil
}

// IsInstalled reports whether a record exists for name.
func (s *Store) IsInstalled(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, unavailable(fmt.Errorf("lookup %s: %w", name, err))
	}
	return true, nil
}

// ListInstalled returns name, version and description of every record, ordered by name.
func (s *Store) ListInstalled(ctx context.Context) ([]model.InstalledSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, version, description FROM packages ORDER BY name`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list installed: %w", err))
	}
	defer rows.Close()

	var out []model.InstalledSummary
	for rows.Next() {
		var sum model.InstalledSummary
		if err := rows.Scan(&sum.Name, &sum.Version, &sum.Description); err != nil {
			return nil, unavailable(fmt.Errorf("list installed: %w", err))
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("list installed: %w", err))
	}
	return out, nil
}

// ListInstalledRecords returns every full record, ordered by name.
func (s *Store) ListInstalledRecords(ctx context.Context) ([]*model.InstalledPackage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY name`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list installed: %w", err))
	}
	defer rows.Close()

	var out []*model.InstalledPackage
	for rows.Next() {
		rec, err := scanInstalled(rows)
		if err != nil {
			return nil, unavailable(fmt.Errorf("list installed: %w", err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("list installed: %w", err))
	}
	return out, nil
}

// DeleteInstalled removes the record for name, or returns ErrNotInstalled.
func (s *Store) DeleteInstalled(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE name = ?`, name)
	if err != nil {
		return unavailable(fmt.Errorf("delete %s: %w", name, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(fmt.Errorf("delete %s: %w", name, err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, errors.ErrNotInstalled)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstalled(row scanner) (*model.InstalledPackage, error) {
	var (
		rec         model.InstalledPackage
		deps, files string
		installDate string
		status      string
	)
	if err := row.Scan(
		&rec.Name,
		&rec.Version,
		&rec.Description,
		&deps,
		&rec.Size,
		&rec.Checksum,
		&rec.InstallPath,
		&files,
		&rec.DownloadURL,
		&rec.Filename,
		&installDate,
		&status,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(deps), &rec.Dependencies); err != nil {
		return nil, fmt.Errorf("decode dependencies of %s: %w", rec.Name, err)
	}
	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return nil, fmt.Errorf("decode files of %s: %w", rec.Name, err)
	}
	t, err := time.Parse(time.RFC3339Nano, installDate)
	if err != nil {
		return nil, fmt.Errorf("decode install date of %s: %w", rec.Name, err)
	}
	rec.InstalledAt = t
	rec.Status = model.Status(status)
	return &rec, nil
}
