package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Metadata(t *testing.T) {
	d := New()
	assert.Equal(t, "md", d.Format())
	assert.Equal(t, []string{".md", ".markdown"}, d.Extensions())
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Title\n\nBody", "Title\n\nBody"},
		{"emphasis", "some **bold** and _italic_ text", "some bold and italic text"},
		{"link", "see [the docs](https://example.com)", "see the docs"},
		{"image", "before ![logo](logo.png) after", "before  after"},
		{"inline code", "run `make test` now", "run make test now"},
		{"code fence", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"rule", "a\n\n---\n\nb", "a\n\nb"},
		{"snake_case survives", "use my_var here", "use my_var here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	got, err := New().Decode(context.Background(), []byte("## Vacation policy\r\n\r\nEmployees get **25** days."))
	require.NoError(t, err)
	assert.Equal(t, "Vacation policy\n\nEmployees get 25 days.", got)
}
