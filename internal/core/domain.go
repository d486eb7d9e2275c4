package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

const (
	CategoryMarketing   Category = "marketing"
	CategoryDevelopment Category = "development"
	CategoryDesign      Category = "design"
	CategoryOperations  Category = "operations"
	CategoryHR          Category = "hr"
	CategoryOther       Category = "other"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type (
	// Category classifies an expense. The set is fixed; unknown values
	// are rejected rather than coerced.
	Category string

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Role         string
		CreatedAt    time.Time
	}

	// Project is a budgeted unit of work. CreatedBy owns the project and
	// is always part of Members.
	Project struct {
		ID          int64
		Name        string
		Description string
		Budget      Money
		StartDate   time.Time
		EndDate     *time.Time
		CreatedBy   int64
		Members     []int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Expense is a single spend record against a project. ProjectID and
	// CreatedBy are immutable after creation.
	Expense struct {
		ID          int64
		ProjectID   int64
		Description string
		Amount      Money
		Category    Category
		Date        time.Time
		CreatedBy   int64
		CreatedAt   time.Time
	}
)

// ValidationError marks input that a caller can fix. The HTTP layer maps
// these to 400 responses.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrEmptyName        = ValidationError("project name cannot be empty")
	ErrMissingBudget    = ValidationError("budget is required")
	ErrNegativeBudget   = ValidationError("budget cannot be negative")
	ErrInvalidDateRange = ValidationError("end date must not be before start date")
	ErrEmptyDescription = ValidationError("description cannot be empty")
	ErrLongDescription  = ValidationError("description too long (max 200 characters)")
	ErrInvalidAmount    = ValidationError("amount must be at least 0.01")
	ErrInvalidCategory  = ValidationError("unknown expense category")
	ErrAlreadyMember    = ValidationError("user is already a member of the project")
	ErrUnknownUser      = ValidationError("no such user")
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// IsValidation reports whether err (or anything it wraps) is a
// ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Valid reports whether c is one of the fixed expense categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMarketing, CategoryDevelopment, CategoryDesign,
		CategoryOperations, CategoryHR, CategoryOther:
		return true
	}
	return false
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Budget.Cents < 0 {
		return ErrNegativeBudget
	}
	if p.EndDate != nil && !p.StartDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsOwner reports whether userID created the project.
func (p Project) IsOwner(userID int64) bool {
	return p.CreatedBy == userID
}

// HasMember reports whether userID is the owner or appears in the member
// list. The owner is always implicitly a member.
func (p Project) HasMember(userID int64) bool {
	return p.CreatedBy == userID || slices.Contains(p.Members, userID)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrLongDescription
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}
