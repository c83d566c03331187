package script

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		n    int
		want []string
	}{
		{
			name: "exact",
			raw:  "1: Stars are born in clouds.\n2: Gravity pulls gas together.",
			n:    2,
			want: []string{"Stars are born in clouds.", "Gravity pulls gas together."},
		},
		{
			name: "preamble and blank lines",
			raw:  "Here is your script:\n\n1:   First beat.  \n\n2:Second beat.\n",
			n:    2,
			want: []string{"First beat.", "Second beat."},
		},
		{
			name: "first seen order not label order",
			raw:  "3: third\n1: first\n2: second",
			n:    3,
			want: []string{"third", "first", "second"},
		},
		{
			name: "extra matches dropped",
			raw:  "1: a\n2: b\n3: c\n4: d\n5: e",
			n:    4,
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "label inside markdown",
			raw:  "**1:** Hook the viewer\n- 2: Explain the idea",
			n:    2,
			want: []string{"** Hook the viewer", "Explain the idea"},
		},
		{
			name: "windows line endings",
			raw:  "1: one\r\n2: two\r\n",
			n:    2,
			want: []string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw, tt.n)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d segments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Text != tt.want[i] {
					t.Fatalf("segment %d = %q, want %q", i, got[i].Text, tt.want[i])
				}
				if got[i].Index != i+1 {
					t.Fatalf("segment %d index = %d", i, got[i].Index)
				}
			}
		})
	}
}

func TestParse_Shortfall(t *testing.T) {
	t.Parallel()

	_, err := Parse("1: a\n2: b\n3: c\nno label here", 4)
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if ee.Required != 4 || ee.Got != 3 {
		t.Fatalf("unexpected counts: %+v", ee)
	}
	if ee.Error() != "script extraction: found 3 of 4 required segments" {
		t.Fatalf("unexpected message: %q", ee.Error())
	}
}

func TestParse_EmptyContentIsNotASegment(t *testing.T) {
	t.Parallel()

	_, err := Parse("1:\n2:   \n3: real", 2)
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Got != 1 {
		t.Fatalf("expected 1 of 2, got %v", err)
	}
}

func TestParse_ContentMustShareTheLabelLine(t *testing.T) {
	t.Parallel()

	raw := "1:\nThe tide rises.\n2: It falls."
	_, err := Parse(raw, 2)
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Got != 1 {
		t.Fatalf("expected 1 of 2, got %v", err)
	}
	segs, err := Parse(raw, 1)
	if err != nil {
		t.Fatal(err)
	}
	if segs[0].Text != "It falls." {
		t.Fatalf("segment = %q, want the labelled line only", segs[0].Text)
	}
}

func TestParse_InvalidCount(t *testing.T) {
	t.Parallel()

	if _, err := Parse("1: a", 0); err == nil {
		t.Fatalf("expected error for n=0")
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	segs, err := Parse("1: a\n2: b", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := Join(segs); got != "a\n\nb" {
		t.Fatalf("Join = %q", got)
	}
}
