package remote

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// ListQuery is the wire form of a paginated list request:
// GET <resource>?page=<1-based>&limit=<n>&sort=<tokens>&filter=<json>.
type ListQuery struct {
	Page   int    `url:"page"`
	Limit  int    `url:"limit"`
	Sort   string `url:"sort"`
	Filter string `url:"filter"`
}

// Values returns the query as url.Values.
func (q ListQuery) Values() url.Values {
	v, err := query.Values(q)
	if err != nil {
		// Only reachable for non-struct inputs.
		return url.Values{}
	}
	return v
}

// Encode returns the URL-encoded query string without the leading "?".
func (q ListQuery) Encode() string {
	return q.Values().Encode()
}
