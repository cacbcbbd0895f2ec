package tracer

// A contiguous range of ray indices dispatched to a worker as one unit.
type Batch struct {
	Start int64
	Count int64
}

// The BatchScheduler interface is implemented by all ray batching
// algorithms.
type BatchScheduler interface {
	// Split the ray index space [0, totalRays) into an ordered list of
	// batches for the worker pool to drain.
	Schedule(totalRays int64) []Batch
}

// The fixed scheduler emits equally sized batches. Keeping batches small
// relative to the total ray count evens out the per-worker load under the
// strided batch assignment and bounds the latency of abort checks.
type fixedScheduler struct {
	batchSize int64
}

// Create a fixed-size batch scheduler. Sizes below 1 are clamped to 1.
func NewFixedScheduler(batchSize int64) BatchScheduler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &fixedScheduler{batchSize: batchSize}
}

// Split the ray index space [0, totalRays) into an ordered list of
// batches. All batches except possibly the last contain exactly batchSize
// indices; together they cover the space without gaps or overlap.
func (sch *fixedScheduler) Schedule(totalRays int64) []Batch {
	if totalRays <= 0 {
		return nil
	}

	numBatches := (totalRays + sch.batchSize - 1) / sch.batchSize
	batches := make([]Batch, 0, numBatches)
	for start := int64(0); start < totalRays; start += sch.batchSize {
		count := sch.batchSize
		if start+count > totalRays {
			count = totalRays - start
		}
		batches = append(batches, Batch{Start: start, Count: count})
	}

	return batches
}
