package hierarchy

import (
	"testing"
)

func ptr(v uint) *uint { return &v }

// fixture:
//
//	1 (Safety)
//	├── 2 (Emissions)
//	│   └── 4 (CO2)
//	└── 3 (Incidents)
//	5 (Uptime)
func fixture() []Entry {
	return []Entry{
		{ID: 1, Name: "Safety"},
		{ID: 2, ParentID: ptr(1), Name: "Emissions"},
		{ID: 3, ParentID: ptr(1), Name: "Incidents"},
		{ID: 4, ParentID: ptr(2), Name: "CO2"},
		{ID: 5, Name: "Uptime"},
	}
}

func TestDescendants(t *testing.T) {
	index := ChildIndex(fixture())

	got := Descendants(index, 1)
	for _, want := range []uint{2, 3, 4} {
		if _, ok := got[want]; !ok {
			t.Fatalf("expected %d in descendant set of 1, got %v", want, got)
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 descendants of 1, got %d", len(got))
	}

	if got := Descendants(index, 5); len(got) != 0 {
		t.Fatalf("expected leaf to have no descendants, got %v", got)
	}
}

func TestWouldCycle(t *testing.T) {
	entries := fixture()

	if !WouldCycle(entries, 1, 1) {
		t.Fatalf("self-parenting must be a cycle")
	}
	if !WouldCycle(entries, 1, 4) {
		t.Fatalf("reparenting onto a deep descendant must be a cycle")
	}
	if !WouldCycle(entries, 2, 4) {
		t.Fatalf("reparenting onto a direct child must be a cycle")
	}
	if WouldCycle(entries, 2, 5) {
		t.Fatalf("reparenting onto an unrelated node must not be a cycle")
	}
	if WouldCycle(entries, 4, 3) {
		t.Fatalf("reparenting a leaf onto a sibling subtree must not be a cycle")
	}
}

func TestBuildSortsSiblingsByName(t *testing.T) {
	roots := Build(fixture(), 0)

	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].Name != "Safety" || roots[1].Name != "Uptime" {
		t.Fatalf("roots not sorted by name: %q, %q", roots[0].Name, roots[1].Name)
	}

	children := roots[0].Children
	if len(children) != 2 {
		t.Fatalf("expected 2 children under Safety, got %d", len(children))
	}
	if children[0].Name != "Emissions" || children[1].Name != "Incidents" {
		t.Fatalf("siblings not sorted by name: %q, %q", children[0].Name, children[1].Name)
	}
	if len(children[0].Children) != 1 || children[0].Children[0].Name != "CO2" {
		t.Fatalf("expected CO2 under Emissions")
	}
}

func TestBuildDepthCap(t *testing.T) {
	roots := Build(fixture(), 2)

	var safety *Tree
	for _, r := range roots {
		if r.Name == "Safety" {
			safety = r
		}
	}
	if safety == nil {
		t.Fatalf("missing Safety root")
	}
	if len(safety.Children) != 2 {
		t.Fatalf("depth 2 must include direct children")
	}
	for _, child := range safety.Children {
		if len(child.Children) != 0 {
			t.Fatalf("depth 2 must truncate grandchildren, found %d under %s", len(child.Children), child.Name)
		}
	}
}
