package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/authz"
	"outlay/internal/core"
)

// ProjectWithStatus pairs a project with its freshly computed budget
// status. The status is derived on every read and never stored.
type ProjectWithStatus struct {
	Project core.Project
	Status  core.BudgetStatus
}

// CreateProjectInput carries the fields accepted on project creation.
type CreateProjectInput struct {
	Name        string
	Description string
	Budget      core.Money
	StartDate   time.Time // zero means "now"
	EndDate     *time.Time
}

// ProjectPatch carries the optional fields of a partial update. Nil
// fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Budget      *core.Money
	StartDate   *time.Time
	EndDate     *time.Time
	Members     *[]int64
}

// ProjectService implements project CRUD, membership management, and
// budget aggregation over an injected store.
type ProjectService struct {
	projects ProjectStore
	expenses ExpenseStore
	users    UserDirectory
	events   EventPublisher
}

func NewProjectService(projects ProjectStore, expenses ExpenseStore, users UserDirectory, events EventPublisher) *ProjectService {
	return &ProjectService{
		projects: projects,
		expenses: expenses,
		users:    users,
		events:   events,
	}
}

// ListForUser returns every project the user owns or belongs to, most
// recently updated first, each annotated with its budget status.
func (s *ProjectService) ListForUser(ctx context.Context, userID int64) ([]ProjectWithStatus, error) {
	projects, err := s.projects.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user %d: %w", userID, err)
	}

	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	totals, err := s.expenses.TotalSpentByProjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("aggregate project spend: %w", err)
	}

	result := make([]ProjectWithStatus, len(projects))
	for i, p := range projects {
		result[i] = ProjectWithStatus{
			Project: p,
			Status:  core.ComputeBudgetStatus(p.Budget, totals[p.ID]),
		}
	}
	return result, nil
}

// Create validates and stores a new project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID int64, in CreateProjectInput) (ProjectWithStatus, error) {
	now := time.Now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	p := core.Project{
		Name:        in.Name,
		Description: in.Description,
		Budget:      in.Budget,
		StartDate:   start,
		EndDate:     in.EndDate,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return ProjectWithStatus{}, err
	}

	created, err := s.projects.CreateProject(ctx, p)
	if err != nil {
		return ProjectWithStatus{}, fmt.Errorf("create project: %w", err)
	}

	slog.InfoContext(ctx, "Project created",
		"project_id", created.ID,
		"owner_id", userID,
		"budget_cents", created.Budget.Cents)

	return ProjectWithStatus{
		Project: created,
		Status:  core.ComputeBudgetStatus(created.Budget, core.Money{}),
	}, nil
}

// Get returns the project with its budget status. Users who are neither
// owner nor member get core.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, userID, projectID int64) (ProjectWithStatus, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return ProjectWithStatus{}, err
	}
	if err := authz.ReadErr(userID, p); err != nil {
		return ProjectWithStatus{}, err
	}
	return s.withStatus(ctx, p)
}

// Update applies a partial update. Only the owner may update; everyone
// else gets the merged not-found outcome. A supplied member list always
// gets the owner force-included.
func (s *ProjectService) Update(ctx context.Context, userID, projectID int64, patch ProjectPatch) (ProjectWithStatus, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return ProjectWithStatus{}, err
	}
	if err := authz.ManageErr(userID, p); err != nil {
		return ProjectWithStatus{}, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Budget != nil {
		p.Budget = *patch.Budget
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = patch.EndDate
	}
	if err := p.Validate(); err != nil {
		return ProjectWithStatus{}, err
	}

	now := time.Now()
	p.UpdatedAt = now
	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return ProjectWithStatus{}, fmt.Errorf("update project %d: %w", projectID, err)
	}

	if patch.Members != nil {
		members := normalizeMembers(p.CreatedBy, *patch.Members)
		if err := s.projects.SetProjectMembers(ctx, projectID, members, now); err != nil {
			return ProjectWithStatus{}, fmt.Errorf("set project members: %w", err)
		}
	}

	updated, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return ProjectWithStatus{}, fmt.Errorf("reload project %d: %w", projectID, err)
	}
	return s.withStatus(ctx, updated)
}

// Delete removes the project and cascade-deletes its expenses. Owner only.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authz.ManageErr(userID, p); err != nil {
		return err
	}

	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}

	slog.InfoContext(ctx, "Project deleted", "project_id", projectID, "owner_id", userID)
	s.publish(ctx, amqp.NewEvent(amqp.EventProjectDeleted, projectID, 0, userID))
	return nil
}

// AddMember grants a user membership. Owner only; adding an existing
// member (including the owner) is a validation error.
func (s *ProjectService) AddMember(ctx context.Context, userID, projectID, newMemberID int64) (ProjectWithStatus, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return ProjectWithStatus{}, err
	}
	if err := authz.ManageErr(userID, p); err != nil {
		return ProjectWithStatus{}, err
	}
	if p.HasMember(newMemberID) {
		return ProjectWithStatus{}, core.ErrAlreadyMember
	}
	exists, err := s.users.UserExists(ctx, newMemberID)
	if err != nil {
		return ProjectWithStatus{}, fmt.Errorf("check user %d: %w", newMemberID, err)
	}
	if !exists {
		return ProjectWithStatus{}, core.ErrUnknownUser
	}

	if err := s.projects.AddProjectMember(ctx, projectID, newMemberID, time.Now()); err != nil {
		return ProjectWithStatus{}, fmt.Errorf("add member %d to project %d: %w", newMemberID, projectID, err)
	}

	slog.InfoContext(ctx, "Project member added",
		"project_id", projectID,
		"member_id", newMemberID,
		"owner_id", userID)
	s.publish(ctx, amqp.NewEvent(amqp.EventMemberAdded, projectID, 0, userID))

	updated, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return ProjectWithStatus{}, fmt.Errorf("reload project %d: %w", projectID, err)
	}
	return s.withStatus(ctx, updated)
}

func (s *ProjectService) withStatus(ctx context.Context, p core.Project) (ProjectWithStatus, error) {
	spent, err := s.expenses.TotalSpent(ctx, p.ID)
	if err != nil {
		return ProjectWithStatus{}, fmt.Errorf("sum spend for project %d: %w", p.ID, err)
	}
	return ProjectWithStatus{
		Project: p,
		Status:  core.ComputeBudgetStatus(p.Budget, spent),
	}, nil
}

func (s *ProjectService) publish(ctx context.Context, ev amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		// Events are best-effort; the write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", ev.Type, "project_id", ev.ProjectID, "error", err)
	}
}

// normalizeMembers dedupes the list and guarantees the owner is present.
func normalizeMembers(ownerID int64, members []int64) []int64 {
	out := []int64{ownerID}
	for _, m := range members {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
