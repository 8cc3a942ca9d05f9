package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oukeidos/skinscan/internal/reconcile"
)

func TestConfirmOverwrite_NonInteractive(t *testing.T) {
	c := Confirmer{
		In:            bytes.NewBufferString("y\n"),
		Out:           nil,
		IsInteractive: func() bool { return false },
	}
	ok, err := c.ConfirmOverwrite("report.json", false)
	if err == nil {
		t.Fatalf("expected error for non-interactive confirm, got ok=%v", ok)
	}
}

func TestConfirmOverwrite_Force(t *testing.T) {
	c := Confirmer{
		In:            bytes.NewBufferString("n\n"),
		Out:           nil,
		IsInteractive: func() bool { return false },
	}
	ok, err := c.ConfirmOverwrite("report.json", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true for forced overwrite")
	}
}

func TestConfirmOverwrite_Interactive(t *testing.T) {
	t.Run("yes", func(t *testing.T) {
		c := Confirmer{
			In:            bytes.NewBufferString("y\n"),
			Out:           nil,
			IsInteractive: func() bool { return true },
		}
		ok, err := c.ConfirmOverwrite("report.json", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected ok=true")
		}
	})

	t.Run("no", func(t *testing.T) {
		c := Confirmer{
			In:            bytes.NewBufferString("n\n"),
			Out:           nil,
			IsInteractive: func() bool { return true },
		}
		ok, err := c.ConfirmOverwrite("report.json", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("expected ok=false")
		}
	})
}

func TestChoose(t *testing.T) {
	cases := []struct {
		name        string
		input       string
		interactive bool
		want        string
	}{
		{"number", "1\n", true, reconcile.LabelTryAgain},
		{"letter", "c\n", true, reconcile.LabelCancel},
		{"full label", "try again\n", true, reconcile.LabelTryAgain},
		{"retry after junk", "x\n", true, reconcile.LabelCancel},
		{"eof falls back", "", true, reconcile.LabelCancel},
		{"non-interactive falls back", "1\n", false, reconcile.LabelCancel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			c := Confirmer{
				In:            bytes.NewBufferString(tc.input),
				Out:           &out,
				IsInteractive: func() bool { return tc.interactive },
			}
			var got []string
			c.Choose("Analysis failed", "Please try again.", reconcile.FailureChoices, func(ch reconcile.Choice) {
				got = append(got, ch.Label)
			})
			if len(got) != 1 || got[0] != tc.want {
				t.Fatalf("picked %v, want [%s]", got, tc.want)
			}
			if !strings.Contains(out.String(), "1) "+reconcile.LabelTryAgain) {
				t.Fatalf("choices not listed: %q", out.String())
			}
		})
	}
}
