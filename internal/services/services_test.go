package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"outlay/internal/amqp"
	"outlay/internal/core"
	"outlay/internal/storage"
)

// eventRecorder captures published events in place of a live broker.
type eventRecorder struct {
	events []amqp.Event
}

func (r *eventRecorder) Publish(_ context.Context, ev amqp.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) typesSeen() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type ServicesSuite struct {
	suite.Suite
	ctx      context.Context
	repo     *storage.Repository
	events   *eventRecorder
	projects *ProjectService
	expenses *ExpenseService

	owner    core.User
	member   core.User
	stranger core.User
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}

func (s *ServicesSuite) SetupTest() {
	repo, err := storage.New(":memory:")
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
	s.events = &eventRecorder{}
	s.projects = NewProjectService(repo, repo, repo, s.events)
	s.expenses = NewExpenseService(repo, repo, s.events)

	s.owner = s.newUser("owner")
	s.member = s.newUser("member")
	s.stranger = s.newUser("stranger")
}

func (s *ServicesSuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func (s *ServicesSuite) newUser(name string) core.User {
	u, err := s.repo.CreateUser(s.ctx, name, "x", core.RoleUser)
	s.Require().NoError(err)
	return u
}

// sharedProject creates a project owned by s.owner with s.member added.
func (s *ServicesSuite) sharedProject(budgetCents int64) core.Project {
	ps, err := s.projects.Create(s.ctx, s.owner.ID, CreateProjectInput{
		Name:   "Launch",
		Budget: core.Money{Cents: budgetCents},
	})
	s.Require().NoError(err)
	withMember, err := s.projects.AddMember(s.ctx, s.owner.ID, ps.Project.ID, s.member.ID)
	s.Require().NoError(err)
	return withMember.Project
}

func (s *ServicesSuite) TestCreateProjectValidation() {
	_, err := s.projects.Create(s.ctx, s.owner.ID, CreateProjectInput{Name: "   "})
	s.ErrorIs(err, core.ErrEmptyName)

	end := time.Now().Add(-48 * time.Hour)
	_, err = s.projects.Create(s.ctx, s.owner.ID, CreateProjectInput{
		Name:      "Launch",
		StartDate: time.Now(),
		EndDate:   &end,
	})
	s.ErrorIs(err, core.ErrInvalidDateRange)
}

func (s *ServicesSuite) TestCreateProjectDefaultsStartDate() {
	ps, err := s.projects.Create(s.ctx, s.owner.ID, CreateProjectInput{
		Name:   "Launch",
		Budget: core.Money{Cents: 50000},
	})
	s.Require().NoError(err)
	s.False(ps.Project.StartDate.IsZero())
	s.Contains(ps.Project.Members, s.owner.ID)
	s.Zero(ps.Status.TotalSpent.Cents)
}

func (s *ServicesSuite) TestGetProjectAccess() {
	p := s.sharedProject(100000)

	_, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.NoError(err)
	_, err = s.projects.Get(s.ctx, s.member.ID, p.ID)
	s.NoError(err)

	// Strangers cannot tell a hidden project from a missing one.
	_, err = s.projects.Get(s.ctx, s.stranger.ID, p.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ServicesSuite) TestUpdateProjectOwnerOnly() {
	p := s.sharedProject(100000)

	name := "Renamed"
	_, err := s.projects.Update(s.ctx, s.member.ID, p.ID, ProjectPatch{Name: &name})
	s.ErrorIs(err, core.ErrNotFound)
	_, err = s.projects.Update(s.ctx, s.stranger.ID, p.ID, ProjectPatch{Name: &name})
	s.ErrorIs(err, core.ErrNotFound)

	updated, err := s.projects.Update(s.ctx, s.owner.ID, p.ID, ProjectPatch{Name: &name})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Project.Name)
	s.True(updated.Project.UpdatedAt.After(p.UpdatedAt))
}

func (s *ServicesSuite) TestUpdateProjectMembersKeepsOwner() {
	p := s.sharedProject(100000)

	// Owner omitted from the new member list; it must be forced back in.
	members := []int64{s.stranger.ID}
	updated, err := s.projects.Update(s.ctx, s.owner.ID, p.ID, ProjectPatch{Members: &members})
	s.Require().NoError(err)
	s.Contains(updated.Project.Members, s.owner.ID)
	s.Contains(updated.Project.Members, s.stranger.ID)
	s.NotContains(updated.Project.Members, s.member.ID)
}

func (s *ServicesSuite) TestAddMember() {
	p := s.sharedProject(100000)

	_, err := s.projects.AddMember(s.ctx, s.owner.ID, p.ID, s.member.ID)
	s.ErrorIs(err, core.ErrAlreadyMember)
	_, err = s.projects.AddMember(s.ctx, s.owner.ID, p.ID, s.owner.ID)
	s.ErrorIs(err, core.ErrAlreadyMember)
	_, err = s.projects.AddMember(s.ctx, s.owner.ID, p.ID, 99999)
	s.ErrorIs(err, core.ErrUnknownUser)
	_, err = s.projects.AddMember(s.ctx, s.member.ID, p.ID, s.stranger.ID)
	s.ErrorIs(err, core.ErrNotFound)

	updated, err := s.projects.AddMember(s.ctx, s.owner.ID, p.ID, s.stranger.ID)
	s.Require().NoError(err)
	s.Contains(updated.Project.Members, s.stranger.ID)
	s.Contains(s.events.typesSeen(), amqp.EventMemberAdded)
}

func (s *ServicesSuite) TestDeleteProjectCascades() {
	p := s.sharedProject(100000)
	_, err := s.expenses.Create(s.ctx, s.member.ID, CreateExpenseInput{
		ProjectID:   p.ID,
		Description: "Ads",
		Amount:      core.Money{Cents: 500},
	})
	s.Require().NoError(err)

	s.ErrorIs(s.projects.Delete(s.ctx, s.member.ID, p.ID), core.ErrNotFound)
	s.Require().NoError(s.projects.Delete(s.ctx, s.owner.ID, p.ID))

	_, err = s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.ErrorIs(err, core.ErrNotFound)
	s.Contains(s.events.typesSeen(), amqp.EventProjectDeleted)
}

func (s *ServicesSuite) TestListForUserComputesStatus() {
	p := s.sharedProject(100000)
	_, err := s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID:   p.ID,
		Description: "Ads",
		Amount:      core.Money{Cents: 50000},
	})
	s.Require().NoError(err)

	list, err := s.projects.ListForUser(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(int64(50000), list[0].Status.TotalSpent.Cents)
	s.Equal(50, list[0].Status.Percentage)
	s.False(list[0].Status.IsOverBudget)

	list, err = s.projects.ListForUser(s.ctx, s.stranger.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *ServicesSuite) TestCreateExpenseDefaults() {
	p := s.sharedProject(100000)

	e, err := s.expenses.Create(s.ctx, s.member.ID, CreateExpenseInput{
		ProjectID:   p.ID,
		Description: "Misc",
		Amount:      core.Money{Cents: 1000},
	})
	s.Require().NoError(err)
	s.Equal(core.CategoryOther, e.Category)
	s.False(e.Date.IsZero())
	s.Equal(s.member.ID, e.CreatedBy)
	s.Contains(s.events.typesSeen(), amqp.EventExpenseCreated)
}

func (s *ServicesSuite) TestCreateExpenseValidation() {
	p := s.sharedProject(100000)

	_, err := s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "", Amount: core.Money{Cents: 100},
	})
	s.ErrorIs(err, core.ErrEmptyDescription)

	_, err = s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "x", Amount: core.Money{Cents: 0},
	})
	s.ErrorIs(err, core.ErrInvalidAmount)

	_, err = s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "x", Amount: core.Money{Cents: 100}, Category: "travel",
	})
	s.ErrorIs(err, core.ErrInvalidCategory)

	// Strangers get the not-found outcome, not a validation error.
	_, err = s.expenses.Create(s.ctx, s.stranger.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "x", Amount: core.Money{Cents: 100},
	})
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ServicesSuite) TestCreateExpenseRefreshesProject() {
	p := s.sharedProject(100000)
	before, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)

	time.Sleep(10 * time.Millisecond)
	_, err = s.expenses.Create(s.ctx, s.member.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "Ads", Amount: core.Money{Cents: 100},
	})
	s.Require().NoError(err)

	after, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)
	s.True(after.Project.UpdatedAt.After(before.Project.UpdatedAt))
}

func (s *ServicesSuite) TestModifyExpenseAuthorization() {
	p := s.sharedProject(100000)
	e, err := s.expenses.Create(s.ctx, s.member.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "Ads", Amount: core.Money{Cents: 100},
	})
	s.Require().NoError(err)

	other := s.newUser("other")
	_, err = s.projects.AddMember(s.ctx, s.owner.ID, p.ID, other.ID)
	s.Require().NoError(err)

	desc := "Updated"

	// A member who is neither creator nor owner sees the expense but may
	// not touch it.
	_, err = s.expenses.Update(s.ctx, other.ID, e.ID, ExpensePatch{Description: &desc})
	s.ErrorIs(err, core.ErrForbidden)
	s.ErrorIs(s.expenses.Delete(s.ctx, other.ID, e.ID), core.ErrForbidden)

	// Strangers cannot see it at all.
	_, err = s.expenses.Update(s.ctx, s.stranger.ID, e.ID, ExpensePatch{Description: &desc})
	s.ErrorIs(err, core.ErrNotFound)

	// Creator and owner both may.
	_, err = s.expenses.Update(s.ctx, s.member.ID, e.ID, ExpensePatch{Description: &desc})
	s.NoError(err)
	s.NoError(s.expenses.Delete(s.ctx, s.owner.ID, e.ID))
	s.Contains(s.events.typesSeen(), amqp.EventExpenseDeleted)
}

func (s *ServicesSuite) TestDeleteExpenseKeepsProjectTimestamp() {
	p := s.sharedProject(100000)
	e, err := s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "Ads", Amount: core.Money{Cents: 100},
	})
	s.Require().NoError(err)

	before, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.expenses.Delete(s.ctx, s.owner.ID, e.ID))

	after, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(before.Project.UpdatedAt, after.Project.UpdatedAt)
}

func (s *ServicesSuite) TestSummarizeByCategory() {
	p := s.sharedProject(100000)
	for _, in := range []CreateExpenseInput{
		{ProjectID: p.ID, Description: "Ads", Amount: core.Money{Cents: 5000}, Category: core.CategoryMarketing},
		{ProjectID: p.ID, Description: "More ads", Amount: core.Money{Cents: 4000}, Category: core.CategoryMarketing},
		{ProjectID: p.ID, Description: "Logo", Amount: core.Money{Cents: 2000}, Category: core.CategoryDesign},
	} {
		_, err := s.expenses.Create(s.ctx, s.owner.ID, in)
		s.Require().NoError(err)
	}

	summary, err := s.expenses.SummarizeByCategory(s.ctx, s.member.ID, p.ID)
	s.Require().NoError(err)
	s.Require().Len(summary, 2)
	s.Equal(core.CategoryMarketing, summary[0].Category)
	s.Equal(int64(9000), summary[0].Total.Cents)

	_, err = s.expenses.SummarizeByCategory(s.ctx, s.stranger.ID, p.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ServicesSuite) TestOverBudgetStatus() {
	p := s.sharedProject(100000)
	_, err := s.expenses.Create(s.ctx, s.owner.ID, CreateExpenseInput{
		ProjectID: p.ID, Description: "Big spend", Amount: core.Money{Cents: 120000},
	})
	s.Require().NoError(err)

	ps, err := s.projects.Get(s.ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)
	s.True(ps.Status.IsOverBudget)
	s.Equal(100, ps.Status.Percentage)
	s.Zero(ps.Status.Remaining.Cents)
}
