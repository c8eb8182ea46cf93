package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`,
		"word/document.xml": documentXML,
		"docProps/core.xml": coreXML,
	}
	for name, content := range parts {
		if content == "" {
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func rawDOCX(content []byte) *domain.RawDocument {
	return &domain.RawDocument{
		URI:      "/corpus/Master/Pruefungsordnung_Informatik.docx",
		Path:     "Master/Pruefungsordnung_Informatik.docx",
		MIMEType: MIMEType,
		Content:  content,
		Labels:   []string{"Master"},
	}
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_HeadingsAndParagraphs(t *testing.T) {
	docXML := body(`
<w:p><w:pPr><w:pStyle w:val="berschrift1"/></w:pPr><w:r><w:t>§ 3 Regelstudienzeit</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Die Regelstudienzeit beträgt </w:t></w:r><w:r><w:t>vier Semester.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Masterarbeit</w:t></w:r></w:p>
<w:p><w:r><w:t>Umfang</w:t><w:tab/><w:t>30 LP</w:t></w:r></w:p>`)
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Prüfungsordnung Informatik (M.Sc.)</dc:title>
</cp:coreProperties>`

	result, err := New().Normalise(context.Background(), rawDOCX(createTestDOCX(t, docXML, core)))
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Prüfungsordnung Informatik (M.Sc.)", doc.Title)
	assert.Equal(t, "Master/Pruefungsordnung_Informatik.docx", doc.Path)
	assert.Equal(t, []string{"Master"}, doc.Labels)
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Contains(t, doc.Content, "# § 3 Regelstudienzeit\nDie Regelstudienzeit beträgt vier Semester.")
	assert.Contains(t, doc.Content, "## Masterarbeit")
	assert.Contains(t, doc.Content, "Umfang 30 LP")
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	docXML := body(`<w:p><w:r><w:t>Inhalt</w:t></w:r></w:p>`)

	result, err := New().Normalise(context.Background(), rawDOCX(createTestDOCX(t, docXML, "")))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Document.Title)
	assert.NotContains(t, result.Document.Title, ".docx")
	assert.Equal(t, "Inhalt", result.Document.Content)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain text")},
		{"missing document part", createTestDOCX(t, "", "")},
		{"broken xml", createTestDOCX(t, "<w:document><w:body>", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), rawDOCX(tt.content))
			assert.ErrorIs(t, err, domain.ErrExtraction)
		})
	}
}

func TestNormalise_NilAndCancelled(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Normalise(ctx, rawDOCX(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":     1,
		"heading 3":    3,
		"berschrift2":  2,
		"Überschrift4": 4,
		"Title":        1,
		"Heading9":     6,
		"Standard":     0,
		"HeadingX":     0,
		"":             0,
	}
	for style, want := range tests {
		assert.Equal(t, want, headingLevel(style), style)
	}
}
