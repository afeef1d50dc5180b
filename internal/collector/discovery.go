package collector

import (
	"context"
	"fmt"

	"prestaboost/internal/logger"
	"prestaboost/internal/services/prestashop"

	"go.uber.org/zap"
)

// OrderProber answers the two questions max-id discovery needs.
type OrderProber interface {
	LatestOrderIDs(ctx context.Context, limit int) ([]int, error)
	OrderExists(ctx context.Context, id int) (bool, error)
}

// DiscoveryProbes are tried in order when the shop cannot sort by id.
var DiscoveryProbes = []int{200000, 150000, 100000, 50000, 10000, 5000, 1000}

const (
	forwardInitialStep = 10000
	forwardMinStep     = 100
)

// FindMaxOrderID finds the highest order id of a shop. It first asks for the
// newest order directly; failing that it probes fixed candidate ids from high
// to low, then walks forward from the first hit with a halving step until the
// step drops below 100. It returns (0, nil) when the shop has no order at any
// probed id, and an error only when every probe failed for a reason other
// than the order being absent.
func FindMaxOrderID(ctx context.Context, p OrderProber, log *logger.Logger) (int, error) {
	ids, err := p.LatestOrderIDs(ctx, 1)
	if err == nil && len(ids) > 0 && ids[0] > 0 {
		return ids[0], nil
	}
	if err != nil {
		log.Debug("sorted order listing unavailable, probing ids", zap.Error(err))
	}

	var lastErr error
	for _, candidate := range DiscoveryProbes {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ok, err := p.OrderExists(ctx, candidate)
		if ok {
			return searchForward(ctx, p, candidate), nil
		}
		if err != nil && !prestashop.IsNotFound(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return 0, fmt.Errorf("max order id discovery failed: %w", lastErr)
	}
	return 0, nil
}

// searchForward climbs from a known id: a hit at current+step moves current
// forward, a miss halves the step.
func searchForward(ctx context.Context, p OrderProber, known int) int {
	current := known
	step := forwardInitialStep
	for step >= forwardMinStep {
		if ctx.Err() != nil {
			break
		}
		if ok, _ := p.OrderExists(ctx, current+step); ok {
			current += step
		} else {
			step /= 2
		}
	}
	return current
}

// legacyScanStart picks the lowest id scanned for a window of days when
// the shop cannot filter orders by date.
func legacyScanStart(maxID, days int) int {
	var start int
	switch {
	case days > 3650:
		start = 1
	case days > 365:
		start = maxID - days*100
	default:
		span := days * 100
		if span < 1000 {
			span = 1000
		}
		start = maxID - span
	}
	if start < 1 {
		start = 1
	}
	return start
}
