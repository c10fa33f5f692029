package provider

import (
	"context"
	"time"

	"github.com/alphatic/alphatic/internal/core"
)

// Provider defines the interface for upstream market-data sources. A fetch
// for a ticker set issues exactly one upstream call for the whole set, so a
// universe-wide request costs one round trip rather than one per ticker.
//
// Implementations classify every upstream response into exactly one of three
// outcomes before returning:
//   - usable: a normalized core.PriceTable (possibly with empty series for
//     tickers the upstream has no rows for)
//   - empty-but-valid: core.ErrNoUpstreamData; retrying will not produce
//     data that does not exist
//   - transient failure: core.ErrUnreachable or core.ErrMalformedResponse,
//     eligible for retry
//
// A malformed-but-non-empty payload must never cross this boundary as a
// usable table.
type Provider interface {
	Name() string
	FetchTable(ctx context.Context, tickers []string, start, end time.Time) (core.PriceTable, error)
}
