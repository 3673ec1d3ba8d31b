package debug

import "testing"

func TestTreeWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(tw *TreeWriter)
		want  string
	}{
		{
			name:  "empty",
			write: func(*TreeWriter) {},
			want:  "",
		},
		{
			name: "lines",
			write: func(tw *TreeWriter) {
				tw.Line(0, "Paragraph style=%q", "Standard")
				tw.Line(2, "Text")
				tw.Line(-1, "clamped")
			},
			want: "Paragraph style=\"Standard\"\n    Text\nclamped\n",
		},
		{
			name: "section",
			write: func(tw *TreeWriter) {
				tw.Section(0, "Pictures index", 2)
				tw.Section(1, "Master pages", 0)
			},
			want: "Pictures index: 2\n  Master pages: 0\n",
		},
		{
			name: "text block",
			write: func(tw *TreeWriter) {
				tw.TextBlock(1, "Text", "tab\there \"quoted\"")
				tw.TextBlock(0, "Empty", "")
			},
			want: "  Text: \"tab\\there \\\"quoted\\\"\"\nEmpty:\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tt.write(tw)
			if got := tw.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
