package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/authz"
	"outlay/internal/core"
)

// CreateExpenseInput carries the fields accepted on expense creation.
// Category falls back to "other" only when entirely absent; an invalid
// value is rejected. Date falls back to the current time.
type CreateExpenseInput struct {
	ProjectID   int64
	Description string
	Amount      core.Money
	Category    core.Category
	Date        time.Time
}

// ExpensePatch carries the optional fields of a partial update. Nil
// fields are left untouched; project and creator are immutable.
type ExpensePatch struct {
	Description *string
	Amount      *core.Money
	Category    *core.Category
	Date        *time.Time
}

// ExpenseService implements expense CRUD and category aggregation with
// the project access rules applied on every operation.
type ExpenseService struct {
	projects ProjectStore
	expenses ExpenseStore
	events   EventPublisher
}

func NewExpenseService(projects ProjectStore, expenses ExpenseStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		projects: projects,
		expenses: expenses,
		events:   events,
	}
}

// ListForProject returns the project's expenses, newest date first. Users
// without project access get core.ErrNotFound.
func (s *ExpenseService) ListForProject(ctx context.Context, userID, projectID int64) ([]core.Expense, error) {
	if err := s.requireAccess(ctx, userID, projectID); err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListExpensesForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list expenses for project %d: %w", projectID, err)
	}
	return expenses, nil
}

// Create records a new expense against the project and refreshes the
// project's updated_at. Any owner or member may create.
func (s *ExpenseService) Create(ctx context.Context, userID int64, in CreateExpenseInput) (core.Expense, error) {
	if err := s.requireAccess(ctx, userID, in.ProjectID); err != nil {
		return core.Expense{}, err
	}

	now := time.Now()
	category := in.Category
	if category == "" {
		category = core.CategoryOther
	}
	date := in.Date
	if date.IsZero() {
		date = now
	}

	e := core.Expense{
		ProjectID:   in.ProjectID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    category,
		Date:        date,
		CreatedBy:   userID,
		CreatedAt:   now,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", created.ID,
		"project_id", created.ProjectID,
		"amount_cents", created.Amount.Cents,
		"category", created.Category,
		"created_by", userID)
	s.publish(ctx, amqp.NewEvent(amqp.EventExpenseCreated, created.ProjectID, created.ID, userID))

	return created, nil
}

// Update applies a partial update. The expense's creator and the project
// owner may update; other members get core.ErrForbidden.
func (s *ExpenseService) Update(ctx context.Context, userID, expenseID int64, patch ExpensePatch) (core.Expense, error) {
	e, p, err := s.loadForModify(ctx, userID, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	if !authz.CanModifyExpense(userID, e, p) {
		return core.Expense{}, core.ErrForbidden
	}

	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", expenseID, err)
	}
	return e, nil
}

// Delete removes the expense under the same rule as Update. Deletion does
// not refresh the project's updated_at; only creation does.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID int64) error {
	e, p, err := s.loadForModify(ctx, userID, expenseID)
	if err != nil {
		return err
	}
	if !authz.CanModifyExpense(userID, e, p) {
		return core.ErrForbidden
	}

	if err := s.expenses.DeleteExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense %d: %w", expenseID, err)
	}

	slog.InfoContext(ctx, "Expense deleted",
		"expense_id", expenseID,
		"project_id", e.ProjectID,
		"deleted_by", userID)
	s.publish(ctx, amqp.NewEvent(amqp.EventExpenseDeleted, e.ProjectID, expenseID, userID))
	return nil
}

// SummarizeByCategory groups the project's expenses by category, largest
// total first. Requires project access.
func (s *ExpenseService) SummarizeByCategory(ctx context.Context, userID, projectID int64) ([]core.CategorySummary, error) {
	if err := s.requireAccess(ctx, userID, projectID); err != nil {
		return nil, err
	}
	summary, err := s.expenses.SummarizeByCategory(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("summarize project %d: %w", projectID, err)
	}
	return summary, nil
}

// requireAccess resolves the project and applies the merged not-found
// policy for callers without read access.
func (s *ExpenseService) requireAccess(ctx context.Context, userID, projectID int64) error {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	return authz.ReadErr(userID, p)
}

// loadForModify fetches the expense and its project, hiding both from
// users who cannot even read the project.
func (s *ExpenseService) loadForModify(ctx context.Context, userID, expenseID int64) (core.Expense, core.Project, error) {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, core.Project{}, err
	}
	p, err := s.projects.GetProject(ctx, e.ProjectID)
	if err != nil {
		return core.Expense{}, core.Project{}, err
	}
	if err := authz.ReadErr(userID, p); err != nil {
		return core.Expense{}, core.Project{}, err
	}
	return e, p, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		// Events are best-effort; the write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", ev.Type, "expense_id", ev.ExpenseID, "error", err)
	}
}
