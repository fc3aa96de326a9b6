package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestToRows(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := toRows(map[string]int64{"item-B": 1, "item-A": 3}, at)

	if len(rows) != 2 {
		t.Fatalf("len got=%d, want=2", len(rows))
	}
	if rows[0].ItemUID != "item-A" || rows[0].ClickCount != 3 {
		t.Fatalf("rows[0] got=%+v", rows[0])
	}
	if rows[1].ItemUID != "item-B" || rows[1].ClickCount != 1 {
		t.Fatalf("rows[1] got=%+v", rows[1])
	}
	if !rows[0].SnapshotAt.Equal(at) {
		t.Fatalf("SnapshotAt got=%s", rows[0].SnapshotAt)
	}

	if got := toRows(map[string]int64{}, at); len(got) != 0 {
		t.Fatalf("empty got=%v", got)
	}
}

func TestWriteJSONLines(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := writeJSONLines(&buf, toRows(map[string]int64{"item-A": 3, "item-B": 1}, at)); err != nil {
		t.Fatalf("writeJSONLines: %v", err)
	}

	want := `{"item_uid":"item-A","click_count":3,"snapshot_at":"2024-05-01T00:00:00Z"}
{"item_uid":"item-B","click_count":1,"snapshot_at":"2024-05-01T00:00:00Z"}
`
	if got := buf.String(); got != want {
		t.Fatalf("got=%s, want=%s", got, want)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("want 2 lines")
	}
}
