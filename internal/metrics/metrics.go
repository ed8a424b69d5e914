package metrics

import (
	"sync/atomic"
)

// Collector counts lifecycle events for the stats command and the ops API.
type Collector struct {
	received           int64
	duplicates         int64
	extractionFailures int64
	approved           int64
	rejected           int64
	dismissed          int64
	cleaned            int64
	expired            int64
	dmFailures         int64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordReceived()          { atomic.AddInt64(&c.received, 1) }
func (c *Collector) RecordDuplicate()         { atomic.AddInt64(&c.duplicates, 1) }
func (c *Collector) RecordExtractionFailure() { atomic.AddInt64(&c.extractionFailures, 1) }
func (c *Collector) RecordApproved()          { atomic.AddInt64(&c.approved, 1) }
func (c *Collector) RecordRejected()          { atomic.AddInt64(&c.rejected, 1) }
func (c *Collector) RecordDismissed()         { atomic.AddInt64(&c.dismissed, 1) }
func (c *Collector) RecordCleaned()           { atomic.AddInt64(&c.cleaned, 1) }
func (c *Collector) RecordExpired()           { atomic.AddInt64(&c.expired, 1) }
func (c *Collector) RecordDMFailure()         { atomic.AddInt64(&c.dmFailures, 1) }

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Received           int64 `json:"received"`
	Duplicates         int64 `json:"duplicates"`
	ExtractionFailures int64 `json:"extraction_failures"`
	Approved           int64 `json:"approved"`
	Rejected           int64 `json:"rejected"`
	Dismissed          int64 `json:"dismissed"`
	Cleaned            int64 `json:"cleaned"`
	Expired            int64 `json:"expired"`
	DMFailures         int64 `json:"dm_failures"`
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Received:           atomic.LoadInt64(&c.received),
		Duplicates:         atomic.LoadInt64(&c.duplicates),
		ExtractionFailures: atomic.LoadInt64(&c.extractionFailures),
		Approved:           atomic.LoadInt64(&c.approved),
		Rejected:           atomic.LoadInt64(&c.rejected),
		Dismissed:          atomic.LoadInt64(&c.dismissed),
		Cleaned:            atomic.LoadInt64(&c.cleaned),
		Expired:            atomic.LoadInt64(&c.expired),
		DMFailures:         atomic.LoadInt64(&c.dmFailures),
	}
}
