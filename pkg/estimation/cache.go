package estimation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ramsey-B/kodi/pkg/models"
)

// Cache stores computed estimates. Implementations must drop entries when the catalog changes.
// Get also returns the slot the estimate belongs in for the catalog state it observed; Set writes
// to that slot, so an estimate computed before a catalog change never lands after it. An empty
// slot means the result must not be stored.
type Cache interface {
	Get(ctx context.Context, key string) (estimate *models.Estimate, slot string, hit bool, err error)
	Set(ctx context.Context, slot string, estimate *models.Estimate) error
}

// CacheKey identifies a query after defaults are applied.
func CacheKey(q models.EstimateQuery) string {
	return strings.Join([]string{
		q.DamageCode,
		string(q.Language),
		q.Size.String(),
		q.Unit,
		fmt.Sprintf("%d", q.PriceYear),
		fmt.Sprintf("%t", q.Verbose),
	}, "|")
}
