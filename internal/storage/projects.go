package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"outlay/internal/core"
)

const projectColumns = `id, name, description, budget_cents, start_date, end_date, created_by, created_at, updated_at`

// CreateProject inserts the project and its owner membership row in one
// transaction, returning the stored project.
func (r *Repository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (name, description, budget_cents, start_date, end_date, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Description, p.Budget.Cents, p.StartDate, nullTime(p.EndDate), p.CreatedBy, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project insert id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
			id, p.CreatedBy,
		); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Project{}, err
	}
	return r.GetProject(ctx, id)
}

// GetProject returns the project with its member list, or core.ErrNotFound.
func (r *Repository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		return core.Project{}, err
	}

	p.Members, err = r.projectMembers(ctx, id)
	if err != nil {
		return core.Project{}, err
	}
	return p, nil
}

// ListProjectsForUser returns every project the user owns or belongs to,
// most recently updated first.
func (r *Repository) ListProjectsForUser(ctx context.Context, userID int64) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prefixedProjectColumns("p")+`
		 FROM projects p
		 JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = ?
		 ORDER BY p.updated_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	for i := range projects {
		projects[i].Members, err = r.projectMembers(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// UpdateProject persists the project's mutable fields and bumps updated_at.
func (r *Repository) UpdateProject(ctx context.Context, p core.Project) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, budget_cents = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.Budget.Cents, p.StartDate, nullTime(p.EndDate), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(res)
}

// SetProjectMembers replaces the member list. Callers must have already
// force-included the owner.
func (r *Repository) SetProjectMembers(ctx context.Context, projectID int64, members []int64, now time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clear project members: %w", err)
		}
		for _, userID := range members {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
				projectID, userID,
			); err != nil {
				return fmt.Errorf("insert project member %d: %w", userID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET updated_at = ? WHERE id = ?`, now, projectID); err != nil {
			return fmt.Errorf("touch project: %w", err)
		}
		return nil
	})
}

// AddProjectMember appends one member and bumps updated_at.
func (r *Repository) AddProjectMember(ctx context.Context, projectID, userID int64, now time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
			projectID, userID,
		); err != nil {
			return fmt.Errorf("insert project member: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET updated_at = ? WHERE id = ?`, now, projectID); err != nil {
			return fmt.Errorf("touch project: %w", err)
		}
		return nil
	})
}

// DeleteProject removes the project, its memberships, and every expense
// referencing it, atomically.
func (r *Repository) DeleteProject(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("cascade delete expenses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete project members: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return requireRow(res)
	})
}

func (r *Repository) projectMembers(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = ? ORDER BY added_at, user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project members: %w", err)
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p   core.Project
		end sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Budget.Cents, &p.StartDate, &end, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, core.ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("scan project: %w", err)
	}
	p.EndDate = fromNullTime(end)
	return p, nil
}

func prefixedProjectColumns(alias string) string {
	cols := strings.Split(projectColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// requireRow converts a zero-row update/delete into core.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
