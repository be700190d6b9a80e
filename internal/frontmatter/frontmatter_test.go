package frontmatter

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMeta string
		wantBody string
		wantErr  error
	}{
		{
			name:     "basic",
			input:    "---\nid: abc\ntitle: Test\n---\n# Body\n",
			wantMeta: "id: abc\ntitle: Test\n",
			wantBody: "# Body\n",
		},
		{
			name:     "empty meta",
			input:    "---\n---\nbody",
			wantMeta: "",
			wantBody: "body",
		},
		{
			name:     "crlf",
			input:    "---\r\nid: abc\r\n---\r\nbody\r\n",
			wantMeta: "id: abc\r\n",
			wantBody: "body\r\n",
		},
		{
			name:     "no trailing newline after fence",
			input:    "---\nid: abc\n---",
			wantMeta: "id: abc\n",
			wantBody: "",
		},
		{
			name:     "fence inside body is kept",
			input:    "---\nid: abc\n---\nintro\n---\nmore\n",
			wantMeta: "id: abc\n",
			wantBody: "intro\n---\nmore\n",
		},
		{name: "missing opening fence", input: "id: abc\n", wantErr: ErrNoFrontMatter},
		{name: "empty input", input: "", wantErr: ErrNoFrontMatter},
		{name: "unterminated", input: "---\nid: abc\n", wantErr: ErrUnterminated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := Split([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Split() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Split() unexpected error: %v", err)
			}
			if string(meta) != tt.wantMeta {
				t.Errorf("meta = %q, want %q", meta, tt.wantMeta)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	doc := Join([]byte("id: abc"), "text\n")
	if string(doc) != "---\nid: abc\n---\ntext\n" {
		t.Fatalf("unexpected document %q", doc)
	}
	meta, body, err := Split(doc)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if string(meta) != "id: abc\n" || body != "text\n" {
		t.Fatalf("round trip mismatch: %q %q", meta, body)
	}
}

func TestParse(t *testing.T) {
	node, err := Parse([]byte("id: abc\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		t.Fatalf("unexpected node %+v", node)
	}

	empty, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if empty.Kind != yaml.MappingNode || len(empty.Content) != 0 {
		t.Fatalf("expected empty mapping, got %+v", empty)
	}

	if _, err := Parse([]byte("- a\n- b\n")); err == nil {
		t.Fatalf("expected error for sequence front matter")
	}
	if _, err := Parse([]byte("key: [unclosed\n")); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func mustParse(t *testing.T, src string) *yaml.Node {
	t.Helper()
	n, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return n
}

func mustEncode(t *testing.T, n *yaml.Node) string {
	t.Helper()
	out, err := Encode(n)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return string(out)
}

func TestMergeUnchangedKeepsPresentation(t *testing.T) {
	orig := mustParse(t, "title: 'Quoted title' # keep\nlabels: [a, b]\ncreated: 2025-01-02 10:00:00\n")
	// same data in a different presentation, as a struct re-encode would produce
	updated := mustParse(t, "title: Quoted title\nlabels:\n  - a\n  - b\ncreated: 2025-01-02T10:00:00Z\n")

	merged, changed := Merge(orig, updated)
	if changed {
		t.Fatalf("expected no change")
	}
	out := mustEncode(t, merged)
	for _, want := range []string{"'Quoted title'", "# keep", "[a, b]", "2025-01-02 10:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("merged output lost %q:\n%s", want, out)
		}
	}
}

func TestMergeChangedKeyReplacedInPlace(t *testing.T) {
	orig := mustParse(t, "id: abc\nstatus: not-started # lifecycle\ntitle: T\n")
	updated := mustParse(t, "id: abc\nstatus: closed\ntitle: T\nactual_end_date: 2025-02-01T00:00:00Z\n")

	merged, changed := Merge(orig, updated)
	if !changed {
		t.Fatalf("expected change")
	}
	out := mustEncode(t, merged)
	want := "id: abc\nstatus: closed # lifecycle\ntitle: T\nactual_end_date: 2025-02-01T00:00:00Z\n"
	if out != want {
		t.Fatalf("merged output:\n%s\nwant:\n%s", out, want)
	}
}

func TestMergeDropsRemovedKeysButKeepsEmptyOnes(t *testing.T) {
	orig := mustParse(t, "id: abc\nactual_end_date: 2025-02-01T00:00:00Z\nmilestone:\nlabels: []\n")
	updated := mustParse(t, "id: abc\n")

	merged, changed := Merge(orig, updated)
	if !changed {
		t.Fatalf("expected change")
	}
	out := mustEncode(t, merged)
	if strings.Contains(out, "actual_end_date") {
		t.Errorf("removed key survived:\n%s", out)
	}
	if !strings.Contains(out, "milestone:") || !strings.Contains(out, "labels: []") {
		t.Errorf("empty keys were dropped:\n%s", out)
	}
}

func TestMergeSequenceKeepsStyle(t *testing.T) {
	orig := mustParse(t, "depends_on: [aaaaaaaa, bbbbbbbb]\n")
	updated := mustParse(t, "depends_on:\n  - aaaaaaaa\n  - bbbbbbbb\n  - cccccccc\n")

	merged, changed := Merge(orig, updated)
	if !changed {
		t.Fatalf("expected change")
	}
	out := mustEncode(t, merged)
	if strings.TrimSpace(out) != "depends_on: [aaaaaaaa, bbbbbbbb, cccccccc]" {
		t.Fatalf("unexpected sequence output %q", out)
	}
}

func TestMergeQuotedStringKeepsQuotes(t *testing.T) {
	orig := mustParse(t, "title: \"Old\"\n")
	updated := mustParse(t, "title: New\n")

	merged, _ := Merge(orig, updated)
	if out := mustEncode(t, merged); strings.TrimSpace(out) != `title: "New"` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMergeNilOrigin(t *testing.T) {
	updated := mustParse(t, "id: abc\n")
	merged, changed := Merge(nil, updated)
	if !changed || merged != updated {
		t.Fatalf("nil origin should return updated unchanged")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"v: 4", "v: 4.0", true},
		{"v: 2025-03-01", "v: \"2025-03-01\"", true},
		{"v: 2025-03-01T00:00:00Z", "v: 2025-03-01 00:00:00", true},
		{"v: [a, b]", "v: [b, a]", false},
		{"v: {x: 1, y: 2}", "v: {y: 2, x: 1}", true},
		{"v: abc", "v: abd", false},
		{"v: \"2025-03-01 09:30:00\"", "v: 2025-03-01T09:30:00Z", true},
		{"v: \"2025-03-01\"", "v: \"2025-03-01T00:00:00Z\"", false},
		{"v: 123", "v: \"123\"", true},
		{"v: [1, true]", "v: [\"1\", \"true\"]", true},
		{"v: {gh: 7}", "v: {gh: \"7\"}", true},
		{"v: 7", "v: \"8\"", false},
	}
	for _, tt := range tests {
		a := mustParse(t, tt.a).Content[1]
		b := mustParse(t, tt.b).Content[1]
		if got := Equal(a, b); got != tt.want {
			t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
