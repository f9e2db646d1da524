package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	CycleIDKey   ctxKey = "cycle_id"
)

// WithCycleID tags a context with the processing cycle it belongs to so
// timings from feeds and persistence line up in the logs.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CycleIDKey, id)
}

func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	cycleID, _ := ctx.Value(CycleIDKey).(string)
	id := reqID
	if id == "" {
		id = cycleID
	}

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("id=%s op=%s dur=%dms err=%v", id, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("id=%s op=%s dur=%dms", id, name, dur.Milliseconds())
	}
}
