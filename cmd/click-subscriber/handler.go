package main

import (
	"context"
	"sync/atomic"

	"github.com/tckz/click-counter/internal/clickevent"
	"github.com/tckz/click-counter/internal/counter"
	"github.com/tckz/click-counter/internal/marker"
	"go.uber.org/zap"
)

type handler struct {
	store  counter.Store
	marker marker.ProcessMarker
	logger *zap.SugaredLogger

	applied    int64
	duplicated int64
	dropped    int64
	failed     int64
}

// handle returns true when the message should be acked.
func (h *handler) handle(ctx context.Context, msgID string, data []byte, attrs map[string]string) bool {
	if got, err := h.marker.Acquire(ctx, msgID); err != nil {
		h.logger.Errorf("Acquire: %v", err)
		return false
	} else if !got {
		h.logger.Infof("msgID=%s already marked to be processed by other", msgID)
		atomic.AddInt64(&h.duplicated, 1)
		return true
	}

	click, err := clickevent.Decode(data, attrs)
	if err != nil {
		// Redelivery would not fix the payload.
		h.logger.Warnf("msgID=%s dropped: %v", msgID, err)
		atomic.AddInt64(&h.dropped, 1)
		return true
	}

	if err := h.store.Increment(ctx, click.UID); err != nil {
		h.logger.Errorf("Increment: uid=%s, %v", click.UID, err)
		if err := h.marker.Release(ctx, msgID); err != nil {
			h.logger.Errorf("Release: %v", err)
		}
		atomic.AddInt64(&h.failed, 1)
		return false
	}

	if n := atomic.AddInt64(&h.applied, 1); n%1000 == 0 {
		h.logger.Infof("applied=%d", n)
	}
	return true
}
