package ledger

import (
	"context"
	"strings"
)

// VendorRef is how a service line points at its vendor: by id, or for
// legacy rows only by the free-text name typed at booking time.
type VendorRef struct {
	ID   *int64
	Name string
}

// VendorIndex finds vendors by name, soft-deleted ones included.
type VendorIndex interface {
	FindVendorIDByName(ctx context.Context, name string) (int64, bool, error)
}

// Resolver is the only place that knows how legacy name references map to
// vendor ids. Everything else in the ledger works with ids.
type Resolver struct {
	index VendorIndex
	memo  map[string]resolved
}

type resolved struct {
	id int64
	ok bool
}

// NewResolver builds a resolver. The memo lives for the resolver's lifetime,
// so callers create one per ledger build.
func NewResolver(index VendorIndex) *Resolver {
	return &Resolver{index: index, memo: make(map[string]resolved)}
}

// Resolve returns the vendor id for ref. Legacy names match case-insensitively
// after trimming; vendor names are unique under the same normalisation.
func (r *Resolver) Resolve(ctx context.Context, ref VendorRef) (int64, bool, error) {
	if ref.ID != nil && *ref.ID > 0 {
		return *ref.ID, true, nil
	}
	key := NormaliseName(ref.Name)
	if key == "" {
		return 0, false, nil
	}
	if hit, ok := r.memo[key]; ok {
		return hit.id, hit.ok, nil
	}
	id, ok, err := r.index.FindVendorIDByName(ctx, key)
	if err != nil {
		return 0, false, err
	}
	r.memo[key] = resolved{id: id, ok: ok}
	return id, ok, nil
}

// NormaliseName is the comparison form of a vendor name. Only ASCII spaces
// are trimmed, matching btrim in lineBelongsToVendor.
func NormaliseName(name string) string {
	return strings.ToLower(strings.Trim(name, " "))
}

// lineBelongsToVendor is the SQL form of the same rule, for statements that
// aggregate in the database. s aliases query_services and v aliases vendors.
const lineBelongsToVendor = `(s.vendor_id = v.id OR (s.vendor_id IS NULL AND lower(btrim(s.vendor_name)) = lower(btrim(v.name))))`
