package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"outlay/internal/core"
	"outlay/internal/services"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.ListForUser(r.Context(), userID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]projectResponse, len(list))
	for i, ps := range list {
		out[i] = toProjectResponse(ps)
	}
	respondData(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	// Budget is required on creation; zero is only accepted when sent
	// explicitly.
	if req.Budget == nil {
		respondError(w, r, core.ErrMissingBudget)
		return
	}
	budget, err := parseBudget(*req.Budget)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in := services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      budget,
	}
	if req.StartDate != nil {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.StartDate = t
	}
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.EndDate = &t
	}

	created, err := s.projects.Create(r.Context(), userID(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toProjectResponse(created))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ps, err := s.projects.Get(r.Context(), userID(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toProjectResponse(ps))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req projectUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	patch := services.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	}
	if req.Budget != nil {
		budget, err := parseBudget(*req.Budget)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Budget = &budget
	}
	if req.StartDate != nil {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.EndDate = &t
	}

	updated, err := s.projects.Update(r.Context(), userID(r.Context()), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toProjectResponse(updated))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.projects.Delete(r.Context(), userID(r.Context()), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleAddProjectMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req memberAddRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.projects.AddMember(r.Context(), userID(r.Context()), id, req.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toProjectResponse(updated))
}

func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		respondErrorMessage(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	uid := userID(r.Context())
	ps, err := s.projects.Get(r.Context(), uid, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expenses, err := s.expenses.ListForProject(r.Context(), uid, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	rows, err := s.exporter.AppendReport(ctx, ps.Project, ps.Status, expenses)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, exportResponse{ProjectID: id, Rows: rows})
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, core.ValidationError("invalid id: " + raw)
	}
	return id, nil
}
