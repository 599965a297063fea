package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	write := func(name, body string) {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`)
	if documentXML != "" {
		write(documentPart, documentXML)
	}
	if coreXML != "" {
		write(corePart, coreXML)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func body(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(p)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func TestDecoder_Metadata(t *testing.T) {
	d := New()
	assert.Equal(t, "docx", d.Format())
	assert.Equal(t, []string{".docx"}, d.Extensions())
}

func TestDecode(t *testing.T) {
	core := `<?xml version="1.0"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Handbook</dc:title></cp:coreProperties>`

	tests := []struct {
		name string
		doc  string
		core string
		want string
	}{
		{
			name: "paragraphs and runs",
			doc: body(
				`<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>`,
				`<w:p><w:r><w:t>Second line</w:t></w:r></w:p>`,
			),
			want: "Hello world\nSecond line",
		},
		{
			name: "title prepended",
			doc:  body(`<w:p><w:r><w:t>Vacation is 25 days.</w:t></w:r></w:p>`),
			core: core,
			want: "Handbook\nVacation is 25 days.",
		},
		{
			name: "title already first line",
			doc:  body(`<w:p><w:r><w:t>Handbook</w:t></w:r></w:p>`, `<w:p><w:r><w:t>Body</w:t></w:r></w:p>`),
			core: core,
			want: "Handbook\nBody",
		},
		{
			name: "empty body",
			doc:  body(),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Decode(context.Background(), createTestDOCX(t, tt.doc, tt.core))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("plain text")},
		{"missing document part", createTestDOCX(t, "", "")},
		{"broken xml", createTestDOCX(t, "<w:document><w:body>", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Decode(context.Background(), tt.data)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
