// Package export defines the port for writing project expense reports to
// an external destination.
package export

import (
	"context"

	"outlay/internal/core"
)

// ReportWriter appends a project's expense report somewhere external and
// returns the number of rows written.
type ReportWriter interface {
	AppendReport(ctx context.Context, project core.Project, status core.BudgetStatus, expenses []core.Expense) (int, error)
}
