package executor

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusCodeMatcher matches an HTTP status against a list of accepted items,
// each of the form "NNN" (exact), "Nxx" (class) or "LLL-HHH" (inclusive
// range). The status passes when any item matches.
type StatusCodeMatcher struct {
	items []statusCodeItem
}

type statusCodeItem struct {
	low, high int
}

// ParseAcceptedStatusCodes builds a matcher; when the list is empty the
// default "2xx" is assumed.
func ParseAcceptedStatusCodes(codes []string) (*StatusCodeMatcher, error) {
	if len(codes) == 0 {
		codes = []string{"2xx"}
	}

	m := &StatusCodeMatcher{}
	for _, raw := range codes {
		item, err := parseStatusCodeItem(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		m.items = append(m.items, item)
	}
	return m, nil
}

func parseStatusCodeItem(raw string) (statusCodeItem, error) {
	if low, high, ok := strings.Cut(raw, "-"); ok {
		l, err1 := strconv.Atoi(low)
		h, err2 := strconv.Atoi(high)
		if err1 != nil || err2 != nil || l > h {
			return statusCodeItem{}, fmt.Errorf("invalid status code range %q", raw)
		}
		return statusCodeItem{low: l, high: h}, nil
	}

	if strings.HasSuffix(raw, "xx") && len(raw) == 3 {
		class, err := strconv.Atoi(raw[:1])
		if err != nil {
			return statusCodeItem{}, fmt.Errorf("invalid status code class %q", raw)
		}
		return statusCodeItem{low: class * 100, high: class*100 + 99}, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return statusCodeItem{}, fmt.Errorf("invalid status code %q", raw)
	}
	return statusCodeItem{low: n, high: n}, nil
}

func (m *StatusCodeMatcher) Match(status int) bool {
	for _, item := range m.items {
		if status >= item.low && status <= item.high {
			return true
		}
	}
	return false
}
