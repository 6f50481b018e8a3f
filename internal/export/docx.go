package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t xml:space="preserve">`
	documentTail = `</w:t></w:r></w:p><w:sectPr/></w:body></w:document>`
)

// renderDocx builds a word-processing package with one paragraph holding
// the whole text as a single run.
func renderDocx(text string) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(documentHead)
	if err := xml.EscapeText(&doc, []byte(text)); err != nil {
		return nil, err
	}
	doc.WriteString(documentTail)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name string
		body io.Reader
	}{
		{"[Content_Types].xml", bytes.NewBufferString(contentTypesXML)},
		{"_rels/.rels", bytes.NewBufferString(relsXML)},
		{"word/document.xml", &doc},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
