package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProjectValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	after := start.AddDate(0, 1, 0)

	cases := []struct {
		name    string
		project Project
		wantErr error
	}{
		{"valid", Project{Name: "Launch", Budget: Money{Cents: 100000}, StartDate: start}, nil},
		{"zero budget allowed", Project{Name: "Launch", Budget: Money{Cents: 0}}, nil},
		{"empty name", Project{Name: "", Budget: Money{Cents: 100}}, ErrEmptyName},
		{"whitespace name", Project{Name: "   ", Budget: Money{Cents: 100}}, ErrEmptyName},
		{"negative budget", Project{Name: "Launch", Budget: Money{Cents: -500}}, ErrNegativeBudget},
		{"end before start", Project{Name: "Launch", Budget: Money{Cents: 100}, StartDate: start, EndDate: &before}, ErrInvalidDateRange},
		{"end after start", Project{Name: "Launch", Budget: Money{Cents: 100}, StartDate: start, EndDate: &after}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.project.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	cases := []struct {
		name    string
		expense Expense
		wantErr error
	}{
		{"valid", Expense{Description: "Ad campaign", Amount: Money{Cents: 9900}, Category: CategoryMarketing}, nil},
		{"minimum amount", Expense{Description: "Stamp", Amount: Money{Cents: 1}, Category: CategoryOther}, nil},
		{"empty description", Expense{Description: " ", Amount: Money{Cents: 100}, Category: CategoryOther}, ErrEmptyDescription},
		{"too long description", Expense{Description: strings.Repeat("x", 201), Amount: Money{Cents: 100}, Category: CategoryOther}, ErrLongDescription},
		{"zero amount", Expense{Description: "Free", Amount: Money{Cents: 0}, Category: CategoryOther}, ErrInvalidAmount},
		{"negative amount", Expense{Description: "Refund", Amount: Money{Cents: -100}, Category: CategoryOther}, ErrInvalidAmount},
		{"invalid category", Expense{Description: "Lunch", Amount: Money{Cents: 100}, Category: "food"}, ErrInvalidCategory},
		{"empty category", Expense{Description: "Lunch", Amount: Money{Cents: 100}, Category: ""}, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.expense.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryMarketing, CategoryDevelopment, CategoryDesign, CategoryOperations, CategoryHR, CategoryOther} {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	for _, c := range []Category{"", "food", "Marketing", "misc"} {
		if c.Valid() {
			t.Errorf("%q should be invalid", c)
		}
	}
}

func TestProjectMembership(t *testing.T) {
	p := Project{CreatedBy: 1, Members: []int64{1, 2, 3}}

	if !p.IsOwner(1) || p.IsOwner(2) {
		t.Error("IsOwner should hold for the creator only")
	}
	if !p.HasMember(1) || !p.HasMember(3) {
		t.Error("owner and listed members must be members")
	}
	if p.HasMember(4) {
		t.Error("unlisted user should not be a member")
	}

	// Owner is implicitly a member even when the list is out of sync.
	orphan := Project{CreatedBy: 7, Members: nil}
	if !orphan.HasMember(7) {
		t.Error("owner must be a member even with an empty member list")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrEmptyName) {
		t.Error("ErrEmptyName should classify as validation")
	}
	if !IsValidation(errorsJoinWrap(ErrInvalidAmount)) {
		t.Error("wrapped validation errors should classify as validation")
	}
	if IsValidation(ErrNotFound) || IsValidation(ErrForbidden) {
		t.Error("lookup/authorization errors are not validation errors")
	}
}

func errorsJoinWrap(err error) error {
	return errors.Join(errors.New("create expense"), err)
}
