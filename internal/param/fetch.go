package param

import (
	"context"
	"strings"
)

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}

// Lines splits a multi-line value the way FetchAll returns a parameter tree:
// one entry per non-blank line.
func Lines(s string) []string {
	var values []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			values = append(values, line)
		}
	}
	return values
}
