package http

import (
	"time"

	"outlay/internal/core"
	"outlay/internal/services"
)

// Monetary amounts cross the wire as decimal numbers (12.34) and are
// converted to cents at the boundary. Dates accept "2006-01-02" or full
// RFC 3339 timestamps and are always emitted as RFC 3339.

type projectCreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Budget      *float64 `json:"budget"`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
}

type projectUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Budget      *float64 `json:"budget"`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	Members     *[]int64 `json:"members"`
}

type memberAddRequest struct {
	UserID int64 `json:"userId"`
}

type expenseCreateRequest struct {
	ProjectID   int64    `json:"projectId"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
}

type expenseUpdateRequest struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type budgetStatusResponse struct {
	TotalSpent   float64 `json:"totalSpent"`
	Remaining    float64 `json:"remaining"`
	Percentage   int     `json:"percentage"`
	IsOverBudget bool    `json:"isOverBudget"`
}

type projectResponse struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Budget       float64              `json:"budget"`
	StartDate    string               `json:"startDate"`
	EndDate      *string              `json:"endDate,omitempty"`
	CreatedBy    int64                `json:"createdBy"`
	Members      []int64              `json:"members"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
	BudgetStatus budgetStatusResponse `json:"budgetStatus"`
}

type expenseResponse struct {
	ID          int64   `json:"id"`
	ProjectID   int64   `json:"projectId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	CreatedBy   int64   `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`
}

type categorySummaryResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int64   `json:"count"`
}

type exportResponse struct {
	ProjectID int64 `json:"projectId"`
	Rows      int   `json:"rows"`
}

func toBudgetStatusResponse(st core.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		TotalSpent:   st.TotalSpent.Float(),
		Remaining:    st.Remaining.Float(),
		Percentage:   st.Percentage,
		IsOverBudget: st.IsOverBudget,
	}
}

func toProjectResponse(ps services.ProjectWithStatus) projectResponse {
	p := ps.Project
	resp := projectResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Budget:       p.Budget.Float(),
		StartDate:    p.StartDate.Format(time.RFC3339),
		CreatedBy:    p.CreatedBy,
		Members:      p.Members,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
		BudgetStatus: toBudgetStatusResponse(ps.Status),
	}
	if resp.Members == nil {
		resp.Members = []int64{}
	}
	if p.EndDate != nil {
		s := p.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	return resp
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		Description: e.Description,
		Amount:      e.Amount.Float(),
		Category:    string(e.Category),
		Date:        e.Date.Format(time.RFC3339),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

// parseDate accepts a bare date or a full timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.ValidationError("invalid date: " + s)
	}
	return t, nil
}

// parseAmount converts a JSON number to expense cents (must be > 0).
func parseAmount(f float64) (core.Money, error) {
	cents, ok := core.CentsFromFloat(f)
	if !ok || cents <= 0 {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.Money{Cents: cents}, nil
}

// parseBudget converts a JSON number to budget cents (zero allowed).
func parseBudget(f float64) (core.Money, error) {
	cents, ok := core.CentsFromFloat(f)
	if !ok || cents < 0 {
		return core.Money{}, core.ErrNegativeBudget
	}
	return core.Money{Cents: cents}, nil
}
