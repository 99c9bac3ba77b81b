package util

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedFilterBy = errors.New("malformed filterBy")

// ParseFilterBy parses "key:value[,key:value]" into a map. Values may contain further colons.
func ParseFilterBy(s string) (map[string]string, error) {
	filters := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return filters, nil
	}

	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Wrapf(ErrMalformedFilterBy, "expect a `:` separated key pair, got %q", pair)
		}
		filters[key] = strings.TrimSpace(value)
	}
	return filters, nil
}
