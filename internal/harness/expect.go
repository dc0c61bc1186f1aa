package harness

import (
	"fmt"
	"slices"
	"strings"
)

// ExpectError describes one failed expectation.
type ExpectError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpect checks result against expect and returns one message per
// failed expectation. A nil expect always passes.
func EvaluateExpect(result *Result, expect *Expect) []string {
	if expect == nil {
		return nil
	}

	var errs []string
	fail := func(field string, expected, actual any) {
		errs = append(errs, (&ExpectError{
			Field:    field,
			Expected: fmt.Sprintf("%v", expected),
			Actual:   fmt.Sprintf("%v", actual),
		}).Error())
	}

	if expect.Points != nil {
		got := idsOf(result)
		if !slices.Equal(*expect.Points, got) {
			fail("points", *expect.Points, got)
		}
	}

	if expect.Saved != nil && !slices.Equal(*expect.Saved, result.Saved) {
		fail("saved", *expect.Saved, result.Saved)
	}

	if expect.States != nil && *expect.States != len(result.Trace.States) {
		fail("states", *expect.States, len(result.Trace.States))
	}

	if expect.News != nil {
		kinds := make([]string, len(result.Trace.News))
		for i, n := range result.Trace.News {
			kinds[i] = n.Kind
		}
		if !slices.Equal(*expect.News, kinds) {
			fail("news", *expect.News, kinds)
		}
	}

	if expect.Errors != nil {
		var messages []string
		for _, n := range result.Trace.News {
			if n.Kind == NewsError {
				messages = append(messages, n.Error)
			}
		}
		if len(messages) != len(expect.Errors) {
			fail("errors", expect.Errors, messages)
		} else {
			for i, want := range expect.Errors {
				if !strings.Contains(messages[i], want) {
					fail(fmt.Sprintf("errors[%d]", i), fmt.Sprintf("%q", want), fmt.Sprintf("%q", messages[i]))
				}
			}
		}
	}

	return errs
}

func idsOf(result *Result) []string {
	ids := make([]string, len(result.Points))
	for i, p := range result.Points {
		ids[i] = p.ID
	}
	return ids
}
