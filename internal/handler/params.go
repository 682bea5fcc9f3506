package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fincore/platform/internal/domain"
)

const dateLayout = "2006-01-02"

// parseDate parses a required ISO calendar date (YYYY-MM-DD) body field.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.ErrValidation(fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
	}
	return t, nil
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// pageParams reads limit/offset. Zero limit means the repository default;
// repositories also enforce the per-endpoint cap.
func pageParams(r *http.Request) (limit, offset int) {
	return queryInt(r, "limit", 0), queryInt(r, "offset", 0)
}

// optQuery returns a pointer to a query parameter value, nil when absent.
func optQuery(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// optBoolQuery parses an optional boolean query parameter.
func optBoolQuery(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, domain.ErrValidation(fmt.Sprintf("%s must be true or false", name))
	}
	return &b, nil
}

// optDateQuery parses an optional YYYY-MM-DD query parameter.
func optDateQuery(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := parseDate(name, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
