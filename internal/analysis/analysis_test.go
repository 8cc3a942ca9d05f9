package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oukeidos/skinscan/internal/apperrors"
	"gopkg.in/yaml.v3"
)

const samplePayload = `{
  "scan_id": "scan-1",
  "session_id": "0192f0c4-6a4e-7b7c-9d3e-0a1b2c3d4e5f",
  "skin_type": "combination",
  "scores": {"hydration": 62, "oiliness": 71, "redness": 18},
  "concerns": ["enlarged pores", "t-zone shine"],
  "summary": "Your T-zone produces more oil than your cheeks. Keep cleansing gentle and focus hydration on drier areas.",
  "routine": [
    {"step": "cleanse", "name": "Gel Cleanser", "brand": "Acme", "reason": "Removes excess oil without stripping"},
    {"step": "moisturize", "name": "Light Lotion"}
  ]
}`

func TestParse_Valid(t *testing.T) {
	p, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.SkinType != "combination" || p.Scores["oiliness"] != 71 || len(p.Routine) != 2 {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if got := p.ScoreNames(); strings.Join(got, ",") != "hydration,oiliness,redness" {
		t.Fatalf("ScoreNames() = %v", got)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing summary", `{"skin_type":"dry","scores":{"a":1},"routine":[]}`, "summary"},
		{"bad skin type", `{"skin_type":"scaly","scores":{"a":1},"summary":"x","routine":[]}`, "skin_type"},
		{"score out of range", `{"skin_type":"dry","scores":{"a":140},"summary":"x","routine":[]}`, "a"},
		{"routine item without name", `{"skin_type":"dry","scores":{"a":1},"summary":"x","routine":[{"step":"spf"}]}`, "name"},
		{"not json", `not json`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind, _ := apperrors.KindOf(err); kind != apperrors.KindValidation {
				t.Fatalf("kind = %q, want validation", kind)
			}
			if tc.want != "" && !strings.Contains(apperrors.Detail(err), tc.want) {
				t.Fatalf("detail %q does not mention %q", apperrors.Detail(err), tc.want)
			}
		})
	}
}

func TestRender_Formats(t *testing.T) {
	p, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, p, FormatText); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Skin type: combination", "oiliness", "1. cleanse: Acme Gel Cleanser", "- t-zone shine"} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, p, FormatJSON); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var back Payload
		if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
			t.Fatalf("json output invalid: %v", err)
		}
		if back.Scores["hydration"] != 62 {
			t.Errorf("json lost scores: %+v", back.Scores)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, p, FormatYAML); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var back Payload
		if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
			t.Fatalf("yaml output invalid: %v", err)
		}
		if back.SkinType != "combination" || len(back.Routine) != 2 {
			t.Errorf("yaml lost fields: %+v", back)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Render(&bytes.Buffer{}, p, "xml"); err == nil {
			t.Fatalf("expected unknown format error")
		}
	})
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"slightly longer", 8, "slightl…"},
		{"👩‍🔬👩‍🔬👩‍🔬", 2, "👩‍🔬…"},
		{"anything", 0, ""},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestWrap(t *testing.T) {
	lines := Wrap("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("Wrap() = %q, want %q", lines, want)
	}
	if Wrap("   ", 10) != nil {
		t.Fatalf("expected nil for blank input")
	}
}
