package models

import "testing"

func TestCurrentRoomId_WalksSnapshotInOrder(t *testing.T) {
	link := InspectionLink{RoomIds: []int{7, 3, 9}}

	cases := []struct {
		index    int
		expected int
		ok       bool
	}{
		{0, 7, true},
		{1, 3, true},
		{2, 9, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tc := range cases {
		link.CurrentRoomIndex = tc.index
		roomId, ok := link.CurrentRoomId()
		if ok != tc.ok || roomId != tc.expected {
			t.Fatalf("CurrentRoomId at index %d: expected (%d, %v), got (%d, %v)",
				tc.index, tc.expected, tc.ok, roomId, ok)
		}
	}
}

func TestCurrentRoomId_EmptySnapshot(t *testing.T) {
	link := InspectionLink{}
	if _, ok := link.CurrentRoomId(); ok {
		t.Fatal("expected no current room for empty snapshot")
	}
}

func TestConvertToAnalysisMessage_CarriesAllFields(t *testing.T) {
	record := AnalysisMessageRecord{
		ID:            42,
		HomeId:        5,
		RoomId:        11,
		Action:        AnalysisActionObserve,
		MediaIds:      []int{1, 2, 3},
		LinkId:        8,
		CorrelationId: "cid-123",
	}
	msg := ConvertToAnalysisMessage(record)
	if msg.ID != 42 || msg.HomeId != 5 || msg.RoomId != 11 {
		t.Fatalf("unexpected ids: %+v", msg)
	}
	if msg.Action != AnalysisActionObserve || msg.LinkId != 8 {
		t.Fatalf("unexpected action/link: %+v", msg)
	}
	if len(msg.MediaIds) != 3 || msg.CorrelationId != "cid-123" {
		t.Fatalf("unexpected media/correlation: %+v", msg)
	}
}

func TestDecodeAnalysisMessage(t *testing.T) {
	data := []byte(`{"id":9,"home_id":2,"room_id":4,"media_ids":[6],"action":"CATALOG"}`)
	msg, err := DecodeAnalysisMessage(data)
	if err != nil {
		t.Fatalf("DecodeAnalysisMessage error: %v", err)
	}
	if msg.ID != 9 || msg.HomeId != 2 || msg.RoomId != 4 || msg.Action != AnalysisActionCatalog {
		t.Fatalf("unexpected message: %+v", msg)
	}

	if _, err := DecodeAnalysisMessage([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
