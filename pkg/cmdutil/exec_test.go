package cmdutil

import (
	"context"
	"testing"
)

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"docker", []string{"docker"}},
		{"podman --remote", []string{"podman", "--remote"}},
		{`docker --context "my context"`, []string{"docker", "--context", "my context"}},
	}
	for _, tc := range cases {
		got, err := SplitCommand(tc.in)
		if err != nil {
			t.Fatalf("SplitCommand(%q) returned error: %v", tc.in, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("SplitCommand(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("SplitCommand(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestSplitCommandRejectsEmptyAndUnbalanced(t *testing.T) {
	for _, in := range []string{"", "   ", `docker "unterminated`} {
		if _, err := SplitCommand(in); err == nil {
			t.Fatalf("SplitCommand(%q): expected error", in)
		}
	}
}

func TestRunRejectsEmptyArgv(t *testing.T) {
	if _, err := (ExecRunner{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for empty argv")
	}
}
