// internal/core/query_params.go
package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default and limit constants for pagination
const (
	DefaultLimit = 50
	MaxLimit     = 200
	DefaultOrder = "asc"
)

// SortableProductColumns whitelists the columns product listings may sort by.
var SortableProductColumns = map[string]bool{
	"name":       true,
	"price":      true,
	"created_at": true,
	"stock":      true,
}

// ProductQuery holds parsed query parameters for the product listing.
// Filters compose conditionally: only the ones present reach the SQL.
type ProductQuery struct {
	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string
	SortOrder string // "asc" or "desc"

	// Filters
	CategoryID *int64
	MinPrice   *float64
	MaxPrice   *float64
	Search     string // substring match on name
}

// ParseProductQuery extracts pagination, sorting and filter options from query
// parameters. Returns the parsed options and any validation error.
func ParseProductQuery(queryParams url.Values) (*ProductQuery, error) {
	q := &ProductQuery{
		Limit:     DefaultLimit,
		Offset:    0,
		SortOrder: DefaultOrder,
	}

	// Parse limit
	if limitStr := queryParams.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be an integer")
		}
		if limit < 1 {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be at least 1")
		}
		if limit > MaxLimit {
			return nil, fmt.Errorf("invalid 'limit' parameter: maximum is %d", MaxLimit)
		}
		q.Limit = limit
	}

	// Parse offset
	if offsetStr := queryParams.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'offset' parameter: must be an integer")
		}
		if offset < 0 {
			return nil, fmt.Errorf("invalid 'offset' parameter: must be non-negative")
		}
		q.Offset = offset
	}

	// Parse sort column
	if sortBy := queryParams.Get("sort"); sortBy != "" {
		if !SortableProductColumns[strings.ToLower(sortBy)] {
			return nil, fmt.Errorf("invalid 'sort' parameter: '%s' is not a sortable column", sortBy)
		}
		q.SortBy = strings.ToLower(sortBy)
	}

	// Parse sort order
	if order := queryParams.Get("order"); order != "" {
		lowerOrder := strings.ToLower(order)
		if lowerOrder != "asc" && lowerOrder != "desc" {
			return nil, fmt.Errorf("invalid 'order' parameter: must be 'asc' or 'desc'")
		}
		q.SortOrder = lowerOrder
	}

	// Parse filters
	if categoryStr := queryParams.Get("category"); categoryStr != "" {
		categoryID, err := strconv.ParseInt(categoryStr, 10, 64)
		if err != nil || categoryID < 1 {
			return nil, fmt.Errorf("invalid 'category' parameter: must be a positive integer")
		}
		q.CategoryID = &categoryID
	}

	if minStr := queryParams.Get("min_price"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil || min < 0 {
			return nil, fmt.Errorf("invalid 'min_price' parameter: must be a non-negative number")
		}
		q.MinPrice = &min
	}

	if maxStr := queryParams.Get("max_price"); maxStr != "" {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil || max < 0 {
			return nil, fmt.Errorf("invalid 'max_price' parameter: must be a non-negative number")
		}
		q.MaxPrice = &max
	}

	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, fmt.Errorf("invalid price range: 'min_price' exceeds 'max_price'")
	}

	if search := queryParams.Get("q"); search != "" {
		q.Search = strings.TrimSpace(search)
	}

	return q, nil
}

// CacheParams flattens the query into the param map used as the cache key, so
// two requests with the same effective filters share one cache line.
func (q *ProductQuery) CacheParams() map[string]string {
	params := map[string]string{
		"limit":  strconv.Itoa(q.Limit),
		"offset": strconv.Itoa(q.Offset),
		"order":  q.SortOrder,
	}
	if q.SortBy != "" {
		params["sort"] = q.SortBy
	}
	if q.CategoryID != nil {
		params["category"] = strconv.FormatInt(*q.CategoryID, 10)
	}
	if q.MinPrice != nil {
		params["min_price"] = strconv.FormatFloat(*q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice != nil {
		params["max_price"] = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}
	if q.Search != "" {
		params["q"] = q.Search
	}
	return params
}
