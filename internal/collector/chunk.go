package collector

import (
	"context"
	"fmt"
	"time"

	"prestaboost/internal/models"

	"go.uber.org/zap"
)

// Range is an inclusive span of remote order ids.
type Range struct {
	Start int `json:"start_id"`
	End   int `json:"end_id"`
}

func (r Range) Len() int {
	return r.End - r.Start + 1
}

// SplitRange cuts [start, end] into consecutive chunks of at most size ids.
// The chunks cover the range exactly, without gaps or overlap.
func SplitRange(start, end, size int) []Range {
	if size <= 0 || end < start {
		return nil
	}
	chunks := make([]Range, 0, (end-start)/size+1)
	for lo := start; lo <= end; lo += size {
		hi := lo + size - 1
		if hi > end {
			hi = end
		}
		chunks = append(chunks, Range{Start: lo, End: hi})
	}
	return chunks
}

// PlanBackfill discovers the boutique's highest order id and splits [1, max]
// into chunks of the configured size.
func (c *Collector) PlanBackfill(ctx context.Context, b *models.Boutique) (int, []Range, error) {
	maxID, err := FindMaxOrderID(ctx, c.clients(b), c.logger.With(boutiqueField(b)))
	if err != nil {
		return 0, nil, err
	}
	if maxID == 0 {
		return 0, nil, nil
	}
	chunks := SplitRange(1, maxID, c.opts.ChunkSize)
	c.logger.Info("backfill planned",
		boutiqueField(b),
		zap.Int("max_order_id", maxID),
		zap.Int("chunks", len(chunks)),
	)
	return maxID, chunks, nil
}

// CollectOrdersChunk fetches every order with an id in [startID, endID],
// highest first, without any date filter.
func (c *Collector) CollectOrdersChunk(ctx context.Context, b *models.Boutique, startID, endID int, opts ...RunOption) (res ChunkResult) {
	started := time.Now()
	defer func() { c.observe(kindChunk, res.Success, started, res.SavedCount) }()

	res = ChunkResult{StartID: startID, EndID: endID}
	if startID < 1 || endID < startID {
		res.Error = fmt.Sprintf("invalid order id range [%d, %d]", startID, endID)
		return res
	}

	log := c.logger.With(boutiqueField(b), zap.Int("start_id", startID), zap.Int("end_id", endID))
	run := c.newOrderRun(b, c.clients(b), newRunConfig(opts))

	found, err := c.scanRange(ctx, run, endID, startID, nil)
	res.OrdersFound = found
	res.SavedCount = run.saved
	if err != nil {
		log.Error("order chunk interrupted", zap.Int("found", found), zap.Error(err))
		res.Error = err.Error()
		return res
	}

	log.Info("order chunk collected", zap.Int("found", found), zap.Int("saved", run.saved))
	res.Success = true
	return res
}
