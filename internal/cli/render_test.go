package cli

import (
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and empties", " svg, ,dot ", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default single", "maps/plan.json", "", []string{"svg"}, map[string]string{"svg": "maps/plan.svg"}},
		{"explicit single", "plan.json", "out/x.svg", []string{"svg"}, map[string]string{"svg": "out/x.svg"}},
		{"default multiple", "plan.json", "", []string{"svg", "png"}, map[string]string{"svg": "plan.svg", "png": "plan.png"}},
		{"base multiple", "plan.json", "out/board", []string{"pdf", "dot"}, map[string]string{"pdf": "out/board.pdf", "dot": "out/board.dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"seed=7", " damping = 0.9 "})
	if err != nil {
		t.Fatalf("parseParams() error: %v", err)
	}
	if got["seed"] != 7 || got["damping"] != 0.9 {
		t.Errorf("parseParams() = %v", got)
	}

	for _, bad := range []string{"seed", "=3", "seed=abc"} {
		if _, err := parseParams([]string{bad}); err == nil {
			t.Errorf("parseParams(%q) should fail", bad)
		}
	}

	if got, err := parseParams(nil); got != nil || err != nil {
		t.Errorf("parseParams(nil) = %v, %v", got, err)
	}
}
