package http

import (
	"net/http"

	"outlay/internal/core"
	"outlay/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	expenses, err := s.expenses.ListForProject(r.Context(), userID(r.Context()), projectID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toExpenseResponses(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ProjectID < 1 {
		respondErrorMessage(w, http.StatusBadRequest, "projectId is required")
		return
	}

	in := services.CreateExpenseInput{
		ProjectID:   req.ProjectID,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.Amount = amount
	}
	if req.Category != nil {
		in.Category = core.Category(*req.Category)
	}
	if req.Date != nil {
		t, err := parseDate(*req.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.Date = t
	}

	created, err := s.expenses.Create(r.Context(), userID(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req expenseUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	patch := services.ExpensePatch{
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Category != nil {
		category := core.Category(*req.Category)
		patch.Category = &category
	}
	if req.Date != nil {
		t, err := parseDate(*req.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Date = &t
	}

	updated, err := s.expenses.Update(r.Context(), userID(r.Context()), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), userID(r.Context()), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleProjectSummary returns the per-category expense breakdown as a
// bare array. Budget status lives on the project resource itself.
func (s *Server) handleProjectSummary(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := s.expenses.SummarizeByCategory(r.Context(), userID(r.Context()), projectID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	categories := make([]categorySummaryResponse, len(summary))
	for i, c := range summary {
		categories[i] = categorySummaryResponse{
			Category: string(c.Category),
			Total:    c.Total.Float(),
			Count:    c.Count,
		}
	}
	respondData(w, http.StatusOK, categories)
}
