package service

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_shop/internal/utils"
)

// ProductQuery holds the parsed listing parameters.
type ProductQuery struct {
	CategoryID        *int
	AttributeValueIDs []int
	BrandIDs          []int
	PriceRange        *PriceRange
	Search            string
	Page              int
	Limit             int
	// Identity scopes cached results, e.g. "user:7" or "anon".
	Identity string
}

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// ParseIDList parses "1,2,3" into sorted unique ids. Empty input yields nil.
func ParseIDList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	seen := make(map[int]struct{})
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, utils.ErrMalformedIDList
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// ParsePriceRange parses "lo,hi". Empty input yields nil.
func ParsePriceRange(raw string) (*PriceRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, utils.ErrMalformedPriceRange
	}
	lo, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, utils.ErrMalformedPriceRange
	}
	hi, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, utils.ErrMalformedPriceRange
	}
	if lo.GreaterThan(hi) {
		return nil, utils.ErrInvalidPriceRange
	}
	return &PriceRange{Min: lo, Max: hi}, nil
}

// cacheParams is the normalized form of the query used in cache keys.
func (q ProductQuery) cacheParams(page, limit int) url.Values {
	v := url.Values{}
	if q.CategoryID != nil {
		v.Set("category", strconv.Itoa(*q.CategoryID))
	}
	if len(q.AttributeValueIDs) > 0 {
		v.Set("attribute-values", joinIDs(q.AttributeValueIDs))
	}
	if len(q.BrandIDs) > 0 {
		v.Set("brand", joinIDs(q.BrandIDs))
	}
	if q.PriceRange != nil {
		v.Set("price", q.PriceRange.Min.String()+","+q.PriceRange.Max.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func identityOrAnon(identity string) string {
	if identity == "" {
		return "anon"
	}
	return identity
}
