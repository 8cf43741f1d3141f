package vision

import (
	"testing"
)

func TestParseObjectListDropsMalformedEntries(t *testing.T) {
	data := []byte(`{"objects":[
		{"name":"Floor Lamp","count":2},
		{"name":"","count":3},
		{"name":"   ","count":1},
		{"name":"Chair","count":0},
		{"name":"Rug","count":-1},
		{"name":" Sofa ","count":1}
	]}`)

	entries, err := ParseObjectList(data)
	if err != nil {
		t.Fatalf("ParseObjectList: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("want 2 valid entries, got %v", entries)
	}
	if entries[0].Name != "Floor Lamp" || entries[0].Count != 2 {
		t.Fatalf("entry 0 = %v", entries[0])
	}
	if entries[1].Name != "Sofa" || entries[1].Count != 1 {
		t.Fatalf("entry 1 = %v (name should be trimmed)", entries[1])
	}
}

func TestParseObjectListEmptyRoomIsValid(t *testing.T) {
	entries, err := ParseObjectList([]byte(`{"objects":[]}`))
	if err != nil {
		t.Fatalf("ParseObjectList: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("want no entries, got %v", entries)
	}
}

func TestParseObjectListRejectsInvalidJSON(t *testing.T) {
	if _, err := ParseObjectList([]byte(`not json`)); err == nil {
		t.Fatal("want error for invalid JSON")
	}
}
