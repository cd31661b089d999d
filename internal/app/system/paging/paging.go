// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/waffle/pantry/query"
)

// Default and maximum page sizes for list endpoints.
const (
	PageSize    = 50
	MaxPageSize = 500
)

// Page is an offset window into a sorted result set.
type Page struct {
	Offset int64
	Limit  int64
}

// Parse reads the "offset" and "limit" query parameters. A missing limit
// becomes def; a larger one is capped at max. Bad values are reported in fe
// under the parameter name and leave the defaults in place.
func Parse(r *http.Request, def, max int64, fe inputval.FieldErrors) Page {
	return parse(r, def, max, false, fe)
}

// ParseAll is Parse for endpoints where limit <= 0 asks for every row.
// The returned Limit is then 0.
func ParseAll(r *http.Request, def, max int64, fe inputval.FieldErrors) Page {
	return parse(r, def, max, true, fe)
}

func parse(r *http.Request, def, max int64, allowAll bool, fe inputval.FieldErrors) Page {
	p := Page{Limit: def}
	if s := query.Get(r, "offset"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			fe["offset"] = "must be >= 0"
		} else {
			p.Offset = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		switch {
		case err != nil:
			fe["limit"] = "must be an integer"
		case n <= 0 && allowAll:
			p.Limit = 0
		case n < 1:
			fe["limit"] = "must be >= 1"
		default:
			p.Limit = min(n, max)
		}
	}
	return p
}

// HasMore reports whether rows remain after this page given the total count.
// An unbounded page (Limit 0) never has more.
func (p Page) HasMore(total int64) bool {
	return p.Limit > 0 && p.Offset+p.Limit < total
}
