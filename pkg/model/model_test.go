package model

import "testing"

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 10, 10},
		{101, 10, 11},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestProfilePatchApply(t *testing.T) {
	base := UserProfile{Name: "Juan Carlos", Email: "juan@example.com"}

	name := "X"
	got := ProfilePatch{Name: &name}.Apply(base)
	if got.Name != "X" || got.Email != base.Email {
		t.Errorf("Apply(name) = %+v", got)
	}

	if got := (ProfilePatch{}).Apply(base); got != base {
		t.Errorf("empty patch changed profile: %+v", got)
	}
	if !(ProfilePatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestPatchOfCopiesFields(t *testing.T) {
	p := UserProfile{Name: "a", Email: "b"}
	patch := PatchOf(p)
	p.Name = "changed"
	if *patch.Name != "a" || *patch.Email != "b" {
		t.Errorf("PatchOf should copy values, got %q %q", *patch.Name, *patch.Email)
	}
}
