package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "wants the evening track", want: "wants the evening track"},
		{name: "tags", in: "<b>call</b> after <script>x</script>6pm", want: "call after x6pm"},
		{name: "encoded tags", in: "&lt;img src=x&gt;ok", want: "ok"},
		{name: "entities kept as text", in: "R&amp;D track", want: "R&D track"},
		{name: "space runs", in: "  too   many \t spaces  ", want: "too many spaces"},
		{name: "newlines kept", in: "line one  \n  line two", want: "line one\nline two"},
		{name: "control chars", in: "bell\a here\x00", want: "bell here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestTextPtr(t *testing.T) {
	assert.Nil(t, TextPtr(nil))
	in := " <i>x</i> "
	assert.Equal(t, "x", *TextPtr(&in))
}
