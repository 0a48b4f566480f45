package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/tonimelisma/motolog/internal/ridelog"
)

// dateParser understands phrases such as "yesterday" or "last saturday".
var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return w
}

// parseDate turns user input into a YYYY-MM-DD date relative to now. An
// empty input stays empty so the record takes its default date.
func parseDate(input string, now time.Time) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}

	if d, err := time.Parse(ridelog.DateLayout, s); err == nil {
		return d.Format(ridelog.DateLayout), nil
	}

	r, err := dateParser.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", input, err)
	}

	if r == nil {
		return "", fmt.Errorf("unrecognized date %q: use YYYY-MM-DD or a phrase like \"yesterday\"", input)
	}

	return r.Time.Format(ridelog.DateLayout), nil
}

// parseMonth parses "2024-03" or a phrase, defaulting to now's month.
func parseMonth(input string, now time.Time) (int, time.Month, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return now.Year(), now.Month(), nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Year(), t.Month(), nil
	}

	d, err := parseDate(s, now)
	if err != nil {
		return 0, 0, err
	}

	t, _ := time.Parse(ridelog.DateLayout, d)

	return t.Year(), t.Month(), nil
}
