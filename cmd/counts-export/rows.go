package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/samber/lo"
)

type countRow struct {
	ItemUID    string    `bigquery:"item_uid" json:"item_uid"`
	ClickCount int64     `bigquery:"click_count" json:"click_count"`
	SnapshotAt time.Time `bigquery:"snapshot_at" json:"snapshot_at"`
}

// toRows orders rows by uid so repeated exports of the same snapshot line up.
func toRows(counts map[string]int64, at time.Time) []*countRow {
	uids := lo.Keys(counts)
	sort.Strings(uids)
	return lo.Map(uids, func(uid string, _ int) *countRow {
		return &countRow{ItemUID: uid, ClickCount: counts[uid], SnapshotAt: at}
	})
}

func writeJSONLines(w io.Writer, rows []*countRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("enc.Encode: %w", err)
		}
	}
	return nil
}
