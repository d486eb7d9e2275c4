package authz

import (
	"errors"
	"testing"

	"outlay/internal/core"
)

var project = core.Project{
	ID:        10,
	CreatedBy: 1,
	Members:   []int64{1, 2},
}

func TestCanRead(t *testing.T) {
	cases := []struct {
		name   string
		userID int64
		want   bool
	}{
		{"owner", 1, true},
		{"member", 2, true},
		{"stranger", 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanRead(tc.userID, project); got != tc.want {
				t.Fatalf("CanRead(%d) = %v, want %v", tc.userID, got, tc.want)
			}
		})
	}
}

func TestCanManage(t *testing.T) {
	if !CanManage(1, project) {
		t.Error("owner must be able to manage")
	}
	if CanManage(2, project) {
		t.Error("member must not be able to manage")
	}
	if CanManage(3, project) {
		t.Error("stranger must not be able to manage")
	}
}

func TestCanModifyExpense(t *testing.T) {
	expense := core.Expense{ID: 99, ProjectID: 10, CreatedBy: 2}

	cases := []struct {
		name   string
		userID int64
		want   bool
	}{
		{"creator", 2, true},
		{"project owner", 1, true},
		{"other member", 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanModifyExpense(tc.userID, expense, project); got != tc.want {
				t.Fatalf("CanModifyExpense(%d) = %v, want %v", tc.userID, got, tc.want)
			}
		})
	}
}

func TestMergedNotFoundPolicy(t *testing.T) {
	// Strangers get the same error for read and manage so that project
	// existence does not leak.
	if err := ReadErr(3, project); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ReadErr(stranger) = %v, want ErrNotFound", err)
	}
	if err := ManageErr(3, project); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ManageErr(stranger) = %v, want ErrNotFound", err)
	}
	// Members can read but still get not-found on manage.
	if err := ReadErr(2, project); err != nil {
		t.Errorf("ReadErr(member) = %v, want nil", err)
	}
	if err := ManageErr(2, project); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ManageErr(member) = %v, want ErrNotFound", err)
	}
	if err := ManageErr(1, project); err != nil {
		t.Errorf("ManageErr(owner) = %v, want nil", err)
	}
}
