package store

import (
	"context"
	"fmt"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// ListRepositories returns the enabled repositories ordered by name.
func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	return s.queryRepositories(ctx, `SELECT name, url, enabled, priority FROM repositories WHERE enabled = 1 ORDER BY name`)
}

// ListAllRepositories returns every repository, enabled or not, ordered by name.
func (s *Store) ListAllRepositories(ctx context.Context) ([]model.Repository, error) {
	return s.queryRepositories(ctx, `SELECT name, url, enabled, priority FROM repositories ORDER BY name`)
}

func (s *Store) queryRepositories(ctx context.Context, query string) ([]model.Repository, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list repositories: %w", err))
	}
	defer rows.Close()

	var out []model.Repository
	for rows.Next() {
		var repo model.Repository
		if err := rows.Scan(&repo.Name, &repo.URL, &repo.Enabled, &repo.Priority); err != nil {
			return nil, unavailable(fmt.Errorf("list repositories: %w", err))
		}
		out = append(out, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("list repositories: %w", err))
	}
	return out, nil
}

// UpsertRepository seeds repo if no repository with that name exists.
// An existing row is left untouched so user changes survive re-seeding.
func (s *Store) UpsertRepository(ctx context.Context, repo model.Repository) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repositories (name, url, enabled, priority)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, repo.Name, repo.URL, repo.Enabled, repo.Priority)
	if err != nil {
		return unavailable(fmt.Errorf("seed repository %s: %w", repo.Name, err))
	}
	return nil
}

// SaveRepository inserts repo or replaces the repository with the same name.
func (s *Store) SaveRepository(ctx context.Context, repo model.Repository) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repositories (name, url, enabled, priority)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			enabled = excluded.enabled,
			priority = excluded.priority
	`, repo.Name, repo.URL, repo.Enabled, repo.Priority)
	if err != nil {
		return unavailable(fmt.Errorf("save repository %s: %w", repo.Name, err))
	}
	return nil
}

// SetRepositoryEnabled toggles a repository, or returns ErrRepositoryNotFound.
func (s *Store) SetRepositoryEnabled(ctx context.Context, name string, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE repositories SET enabled = ? WHERE name = ?`, enabled, name)
	if err != nil {
		return unavailable(fmt.Errorf("update repository %s: %w", name, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(fmt.Errorf("update repository %s: %w", name, err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, errors.ErrRepositoryNotFound)
	}
	return nil
}
