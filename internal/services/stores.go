// Package services implements the project and expense operations on top
// of injected stores, enforcing the authorization and aggregation rules.
package services

import (
	"context"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/core"
)

// ProjectStore is the persistence surface the services need for projects.
// *storage.Repository satisfies it; tests may substitute any backend.
type ProjectStore interface {
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)
	GetProject(ctx context.Context, id int64) (core.Project, error)
	ListProjectsForUser(ctx context.Context, userID int64) ([]core.Project, error)
	UpdateProject(ctx context.Context, p core.Project) error
	SetProjectMembers(ctx context.Context, projectID int64, members []int64, now time.Time) error
	AddProjectMember(ctx context.Context, projectID, userID int64, now time.Time) error
	DeleteProject(ctx context.Context, id int64) error
}

// ExpenseStore is the persistence surface the services need for expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpensesForProject(ctx context.Context, projectID int64) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	TotalSpent(ctx context.Context, projectID int64) (core.Money, error)
	TotalSpentByProjects(ctx context.Context, projectIDs []int64) (map[int64]core.Money, error)
	SummarizeByCategory(ctx context.Context, projectID int64) ([]core.CategorySummary, error)
}

// UserDirectory answers existence checks when adding members.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// EventPublisher emits change events. A nil publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.Event) error
}
