package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"outlay/internal/core"
)

const expenseColumns = `id, project_id, description, amount_cents, category, date, created_by, created_at`

// CreateExpense inserts the expense and refreshes the parent project's
// updated_at in the same transaction. Deleting an expense deliberately
// does not touch the project; only creation does.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (project_id, description, amount_cents, category, date, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ProjectID, e.Description, e.Amount.Cents, string(e.Category), e.Date, e.CreatedBy, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("expense insert id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE projects SET updated_at = ? WHERE id = ?`, e.CreatedAt, e.ProjectID); err != nil {
			return fmt.Errorf("touch project: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, id)
}

// GetExpense returns the expense with the given ID, or core.ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// ListExpensesForProject returns the project's expenses sorted by date
// descending, tie-broken by creation time descending.
func (r *Repository) ListExpensesForProject(ctx context.Context, projectID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE project_id = ?
		 ORDER BY date DESC, created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense persists the mutable fields. ProjectID and CreatedBy are
// immutable and not part of the statement.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount_cents = ?, category = ?, date = ? WHERE id = ?`,
		e.Description, e.Amount.Cents, string(e.Category), e.Date, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpense removes a single expense.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// TotalSpent sums every expense amount recorded against the project.
func (r *Repository) TotalSpent(ctx context.Context, projectID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE project_id = ?`, projectID,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// totalSpentChunkSize stays below SQLite's 999 bound-variable limit.
const totalSpentChunkSize = 500

// TotalSpentByProjects sums expenses per project for the given IDs.
// Projects with no expenses are absent from the result map. The ID list
// is queried in chunks so it never exceeds SQLite's variable limit.
func (r *Repository) TotalSpentByProjects(ctx context.Context, projectIDs []int64) (map[int64]core.Money, error) {
	totals := make(map[int64]core.Money, len(projectIDs))
	for start := 0; start < len(projectIDs); start += totalSpentChunkSize {
		chunk := projectIDs[start:min(start+totalSpentChunkSize, len(projectIDs))]
		if err := r.sumSpentInto(ctx, chunk, totals); err != nil {
			return nil, err
		}
	}
	return totals, nil
}

func (r *Repository) sumSpentInto(ctx context.Context, projectIDs []int64, totals map[int64]core.Money) error {
	placeholders := strings.Repeat("?,", len(projectIDs)-1) + "?"
	args := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, SUM(amount_cents) FROM expenses
		 WHERE project_id IN (`+placeholders+`)
		 GROUP BY project_id`, args...)
	if err != nil {
		return fmt.Errorf("sum expenses by project: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			cents int64
		)
		if err := rows.Scan(&id, &cents); err != nil {
			return fmt.Errorf("scan project total: %w", err)
		}
		totals[id] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate project totals: %w", err)
	}
	return nil
}

// SummarizeByCategory groups the project's expenses by category, largest
// total first.
func (r *Repository) SummarizeByCategory(ctx context.Context, projectID int64) ([]core.CategorySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents), COUNT(*) FROM expenses
		 WHERE project_id = ?
		 GROUP BY category
		 ORDER BY SUM(amount_cents) DESC, category`, projectID)
	if err != nil {
		return nil, fmt.Errorf("summarize by category: %w", err)
	}
	defer rows.Close()

	var summary []core.CategorySummary
	for rows.Next() {
		var (
			s     core.CategorySummary
			cents int64
		)
		if err := rows.Scan(&s.Category, &cents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		s.Total = core.Money{Cents: cents}
		summary = append(summary, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category summary: %w", err)
	}
	return summary, nil
}

// CountExpensesForProject reports how many expenses reference the project.
func (r *Repository) CountExpensesForProject(ctx context.Context, projectID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e   core.Expense
		cat string
	)
	err := row.Scan(&e.ID, &e.ProjectID, &e.Description, &e.Amount.Cents, &cat, &e.Date, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Category = core.Category(cat)
	return e, nil
}
