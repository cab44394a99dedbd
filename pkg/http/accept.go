package http

import (
	"net/http"
	"sort"

	"github.com/golang/gddo/httputil/header"
)

// negotiateContentType chooses between the media types a render
// response can be serialized as (YAML multidoc or a JSON set), given
// the request's Accept header and the server's own order of
// preference. Acceptable types are ranked by their quality (`q`)
// parameter, ties broken by the server's preference order; a request
// with no Accept header gets the server's first choice, and a request
// accepting none of the offered types gets "".
func negotiateContentType(r *http.Request, orderedPref []string) string {
	specs := header.ParseAccept(r.Header, "Accept")
	if len(specs) == 0 {
		return orderedPref[0]
	}

	acceptable := []header.AcceptSpec{}
	for _, spec := range specs {
		if indexOf(orderedPref, spec.Value) < len(orderedPref) {
			acceptable = append(acceptable, spec)
		}
	}
	if len(acceptable) > 0 {
		sort.Sort(sortAccept{acceptable, orderedPref})
		return acceptable[0].Value
	}
	return ""
}

// sortAccept orders accept specs by descending suitability: higher
// quality before lower, then earlier in the server's preference list
// before later.
type sortAccept struct {
	specs []header.AcceptSpec
	prefs []string
}

func (s sortAccept) Len() int {
	return len(s.specs)
}

func (s sortAccept) Less(i, j int) bool {
	switch {
	case s.specs[i].Q == s.specs[j].Q:
		return indexOf(s.prefs, s.specs[i].Value) < indexOf(s.prefs, s.specs[j].Value)
	default:
		return s.specs[i].Q > s.specs[j].Q
	}
}

func (s sortAccept) Swap(i, j int) {
	s.specs[i], s.specs[j] = s.specs[j], s.specs[i]
}

// indexOf searches short, unsorted slices; it returns len(ss) when
// the value is absent so the result sorts missing entries last.
func indexOf(ss []string, search string) int {
	for i, s := range ss {
		if s == search {
			return i
		}
	}
	return len(ss)
}
