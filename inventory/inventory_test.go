package inventory

import (
	"reflect"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Red Chair", "red chair"},
		{"  Lamp  ", "lamp"},
		{"SOFA", "sofa"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeKey(c.in); got != c.want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMergeFoldsNameCollisions(t *testing.T) {
	existing := Inventory{{Name: "Red Chair", Count: 1}}
	incoming := []ObjectEntry{
		{Name: "red chair", Count: 2},
		{Name: "RED CHAIR", Count: 1},
	}

	got := Merge(existing, incoming)
	want := Inventory{{Name: "Red Chair", Count: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %v, want %v", got, want)
	}
}

func TestMergeEmptyIncomingIsIdentity(t *testing.T) {
	existing := Inventory{
		{Name: "Sofa", Count: 1},
		{Name: "Lamp", Count: 2},
	}

	once := Merge(existing, []ObjectEntry{{Name: "Table", Count: 1}})
	twice := Merge(once, nil)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merging an empty batch changed the inventory: %v vs %v", once, twice)
	}
}

func TestMergeCountsAreOrderIndependent(t *testing.T) {
	existing := Inventory{{Name: "Chair", Count: 2}}
	batch1 := []ObjectEntry{{Name: "chair", Count: 1}, {Name: "Lamp", Count: 1}}
	batch2 := []ObjectEntry{{Name: "CHAIR", Count: 3}, {Name: "Table", Count: 2}}

	forward := Merge(Merge(existing, batch1), batch2)
	backward := Merge(Merge(existing, batch2), batch1)

	if len(forward) != len(backward) {
		t.Fatalf("merge orders disagree on entry count: %v vs %v", forward, backward)
	}
	for i := range forward {
		fk := NormalizeKey(forward[i].Name)
		bk := NormalizeKey(backward[i].Name)
		if fk != bk || forward[i].Count != backward[i].Count {
			t.Fatalf("merge orders disagree at %d: %v vs %v", i, forward[i], backward[i])
		}
	}

	chair, ok := forward.Find("chair")
	if !ok || chair.Count != 6 {
		t.Fatalf("chair count = %v (found=%v), want 6", chair.Count, ok)
	}
}

func TestMergeKeepsFirstSeenDisplayName(t *testing.T) {
	cases := []struct {
		name     string
		existing Inventory
		incoming []ObjectEntry
		wantName string
	}{
		{
			name:     "existing name wins over incoming",
			existing: Inventory{{Name: "Red Chair", Count: 1}},
			incoming: []ObjectEntry{{Name: "RED CHAIR", Count: 1}},
			wantName: "Red Chair",
		},
		{
			name:     "first incoming name wins when key is new",
			existing: Inventory{},
			incoming: []ObjectEntry{
				{Name: "Floor Lamp", Count: 1},
				{Name: "floor lamp", Count: 1},
			},
			wantName: "Floor Lamp",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Merge(c.existing, c.incoming)
			if len(got) != 1 {
				t.Fatalf("want one entry, got %v", got)
			}
			if got[0].Name != c.wantName {
				t.Fatalf("display name = %q, want %q", got[0].Name, c.wantName)
			}
		})
	}
}

func TestMergeOutputSortedByNormalizedKey(t *testing.T) {
	got := Merge(
		Inventory{{Name: "Zebra Rug", Count: 1}},
		[]ObjectEntry{
			{Name: "armchair", Count: 1},
			{Name: "Mirror", Count: 1},
		},
	)

	wantOrder := []string{"armchair", "mirror", "zebra rug"}
	if len(got) != len(wantOrder) {
		t.Fatalf("want %d entries, got %v", len(wantOrder), got)
	}
	for i, key := range wantOrder {
		if NormalizeKey(got[i].Name) != key {
			t.Fatalf("entry %d = %q, want key %q", i, got[i].Name, key)
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := Inventory{{Name: "Lamp", Count: 1}}
	incoming := []ObjectEntry{{Name: "lamp", Count: 2}}

	_ = Merge(existing, incoming)

	if existing[0].Count != 1 {
		t.Fatalf("existing inventory was mutated: %v", existing)
	}
	if incoming[0].Count != 2 {
		t.Fatalf("incoming batch was mutated: %v", incoming)
	}
}

func TestTotalCount(t *testing.T) {
	inv := Inventory{{Name: "Lamp", Count: 2}, {Name: "Chair", Count: 3}}
	if got := inv.TotalCount(); got != 5 {
		t.Fatalf("TotalCount = %d, want 5", got)
	}
	var empty Inventory
	if got := empty.TotalCount(); got != 0 {
		t.Fatalf("TotalCount of empty = %d, want 0", got)
	}
}
