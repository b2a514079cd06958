package fingerprint

import "testing"

func TestComputeOrderIndependent(t *testing.T) {
	a := Compute("white-rice", []string{"diabetes", "hypertension"}, []string{"metformin"}, "quick")
	b := Compute("white-rice", []string{"hypertension", "diabetes"}, []string{"metformin"}, "quick")
	if a != b {
		t.Fatalf("permuted disease set changed fingerprint: %s vs %s", a, b)
	}
}

func TestComputeDuplicateIndependent(t *testing.T) {
	a := Compute("egg", []string{"gout"}, []string{"warfarin"}, "full")
	b := Compute("egg", []string{"gout", "gout", " Gout "}, []string{"warfarin", "WARFARIN"}, "full")
	if a != b {
		t.Fatalf("duplicated entries changed fingerprint: %s vs %s", a, b)
	}
}

func TestComputeDistinguishesContent(t *testing.T) {
	base := Compute("egg", []string{"gout"}, nil, "quick")
	if base == Compute("egg", []string{"diabetes"}, nil, "quick") {
		t.Fatal("different disease sets collided")
	}
	if base == Compute("egg", []string{"gout"}, nil, "full") {
		t.Fatal("different modes collided")
	}
	if base == Compute("tofu", []string{"gout"}, nil, "quick") {
		t.Fatal("different foods collided")
	}
	if base == Compute("egg", nil, []string{"gout"}, "quick") {
		t.Fatal("disease/medicine field boundary not preserved")
	}
}

func TestComputeFixedLength(t *testing.T) {
	fp := Compute("water", nil, nil, "quick")
	if len(fp) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(fp))
	}
}
