package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"No args", nil, false},
		{"Render flags only", []string{"-fractal", "nebula-side", "-frames", "4"}, false},
		{"Alone", []string{"-version"}, true},
		{"Short form", []string{"-V"}, true},
		{"After server flags", []string{"-server", "-port", "9090", "--version"}, true},
		{"After terminator", []string{"-fractal", "collatz", "--", "-version"}, false},
		{"Prefix of another flag", []string{"-verbose"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HasVersionFlag(tt.args); got != tt.want {
				t.Errorf("HasVersionFlag(%q) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

// TestPrintVersion checks that the printed block is the build information,
// line for line.
func TestPrintVersion(t *testing.T) {
	t.Parallel()
	v := GetVersionInfo()
	want := strings.Join([]string{
		"fractalcalc " + v.Version,
		"  Commit:     " + v.Commit,
		"  Built:      " + v.BuildDate,
		"  Go version: " + v.GoVersion,
		fmt.Sprintf("  OS/Arch:    %s/%s", v.OS, v.Arch),
	}, "\n") + "\n"

	var buf bytes.Buffer
	PrintVersion(&buf)
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("PrintVersion mismatch (-want +got):\n%s", diff)
	}
}

// TestRun_LogsVersion checks that a debug run stamps its start record with
// the build it came from.
func TestRun_LogsVersion(t *testing.T) {
	t.Parallel()
	var out, errBuf bytes.Buffer
	app, err := New(args("-q", "-log-level", "debug", "-workers", "1"), &errBuf)
	if err != nil {
		t.Fatal(err)
	}
	app.Run(context.Background(), &out)

	for _, line := range strings.Split(errBuf.String(), "\n") {
		var record map[string]any
		if json.Unmarshal([]byte(line), &record) != nil || record["message"] != "render starting" {
			continue
		}
		v := GetVersionInfo()
		got := map[string]any{"version": record["version"], "commit": record["commit"], "fractal": record["fractal"]}
		want := map[string]any{"version": v.Version, "commit": v.Commit, "fractal": "collatz"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("start record mismatch (-want +got):\n%s", diff)
		}
		return
	}
	t.Errorf("no render starting record in:\n%s", errBuf.String())
}
