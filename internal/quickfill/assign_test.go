package quickfill

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeepHighest(t *testing.T) {
	type item struct {
		group string
		res   int
		name  string
	}
	items := []item{
		{"filemoon", 480, "fm-480"},
		{"vidhide", 720, "vh-720"},
		{"filemoon", 1080, "fm-1080"},
		{"filemoon", 720, "fm-720"},
		{"vidhide", 720, "vh-720-dup"},
	}

	got := KeepHighest(items,
		func(i item) string { return i.group },
		func(i item) int { return i.res },
	)

	want := []item{
		{"filemoon", 1080, "fm-1080"},
		{"vidhide", 720, "vh-720"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(item{})); diff != "" {
		t.Errorf("KeepHighest() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignRoundRobin(t *testing.T) {
	t.Run("ModuloTargets", func(t *testing.T) {
		got := map[string][]int{}
		ok := AssignRoundRobin([]int{0, 1, 2, 3, 4}, []string{"a", "b"}, func(i int, target string) {
			got[target] = append(got[target], i)
		})
		if !ok {
			t.Fatal("AssignRoundRobin() = false, want true")
		}
		want := map[string][]int{"a": {0, 2, 4}, "b": {1, 3}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("AssignRoundRobin() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("NoTargets", func(t *testing.T) {
		called := false
		ok := AssignRoundRobin([]int{1}, []string{}, func(int, string) { called = true })
		if ok || called {
			t.Errorf("AssignRoundRobin() with no targets = %v (called %v), want false", ok, called)
		}
	})
}
