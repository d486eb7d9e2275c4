package core

import "testing"

func TestComputeBudgetStatus(t *testing.T) {
	cases := []struct {
		name       string
		budget     int64
		spent      int64
		remaining  int64
		percentage int
		over       bool
	}{
		{"half spent", 100000, 50000, 50000, 50, false},
		{"over budget", 100000, 120000, 0, 100, true},
		{"nothing spent", 100000, 0, 100000, 0, false},
		{"exactly on budget", 100000, 100000, 0, 100, false},
		{"zero budget", 0, 5000, 0, 0, false},
		{"rounds half up", 100000, 33335, 66665, 33, false},
		{"one cent over", 100000, 100001, 0, 100, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := ComputeBudgetStatus(Money{Cents: tc.budget}, Money{Cents: tc.spent})
			if st.TotalSpent.Cents != tc.spent {
				t.Errorf("TotalSpent = %d, want %d", st.TotalSpent.Cents, tc.spent)
			}
			if st.Remaining.Cents != tc.remaining {
				t.Errorf("Remaining = %d, want %d", st.Remaining.Cents, tc.remaining)
			}
			if st.Percentage != tc.percentage {
				t.Errorf("Percentage = %d, want %d", st.Percentage, tc.percentage)
			}
			if st.IsOverBudget != tc.over {
				t.Errorf("IsOverBudget = %v, want %v", st.IsOverBudget, tc.over)
			}
		})
	}
}

func TestComputeBudgetStatusRemainingNeverNegative(t *testing.T) {
	for spent := int64(0); spent <= 300000; spent += 7919 {
		st := ComputeBudgetStatus(Money{Cents: 100000}, Money{Cents: spent})
		if st.Remaining.Cents < 0 {
			t.Fatalf("spent=%d: Remaining = %d, want >= 0", spent, st.Remaining.Cents)
		}
		if got, want := st.IsOverBudget, spent > 100000; got != want {
			t.Fatalf("spent=%d: IsOverBudget = %v, want %v", spent, got, want)
		}
	}
}
