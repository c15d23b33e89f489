package shopify

import (
	"net/url"
	"strings"
)

// nextPageQuery extracts the query of the rel="next" entry of a Link header:
//
//	<https://shop.myshopify.com/admin/api/2023-10/products.json?limit=250&page_info=abc>; rel="next"
func nextPageQuery(link string) (map[string]string, bool) {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}

		isNext := false
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if attr == `rel="next"` || attr == "rel=next" {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}

		raw := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			return nil, false
		}
		values := u.Query()
		if values.Get("page_info") == "" {
			return nil, false
		}
		query := make(map[string]string, len(values))
		for k := range values {
			query[k] = values.Get(k)
		}
		return query, true
	}
	return nil, false
}
