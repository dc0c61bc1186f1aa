package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldmap/internal/point"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// Snapshot renders a trace as canonical JSON so that golden comparison is
// byte-exact across runs.
func Snapshot(name string, trace Trace) ([]byte, error) {
	states := make([]any, len(trace.States))
	for i, s := range trace.States {
		states[i] = map[string]any{
			"loaded": s.Loaded,
			"ids":    stringsToAny(s.IDs),
		}
	}

	news := make([]any, len(trace.News))
	for i, n := range trace.News {
		entry := map[string]any{"kind": n.Kind}
		switch n.Kind {
		case NewsResults:
			entry["ids"] = stringsToAny(n.IDs)
		case NewsError:
			entry["error"] = n.Error
		}
		news[i] = entry
	}

	return point.MarshalCanonical(map[string]any{
		"scenario": name,
		"states":   states,
		"news":     news,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
