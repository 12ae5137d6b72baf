package coverage

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/diffcover/schema"
)

// CoberturaDecoder reads Cobertura XML as written by coverage.py, gcovr,
// gocover-cobertura and most JVM tools.
type CoberturaDecoder struct{}

type coberturaLine struct {
	Number int   `xml:"number,attr"`
	Hits   int64 `xml:"hits,attr"`
}

type coberturaClass struct {
	Filename string          `xml:"filename,attr"`
	Lines    []coberturaLine `xml:"lines>line"`
}

type coberturaReport struct {
	XMLName  xml.Name `xml:"coverage"`
	Sources  []string `xml:"sources>source"`
	Packages []struct {
		Classes []coberturaClass `xml:"classes>class"`
	} `xml:"packages>package"`
}

// Decode implements Decoder. A line with hits > 0 is covered.
func (CoberturaDecoder) Decode(r io.Reader) (schema.CoverageReport, error) {
	var doc coberturaReport
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return schema.CoverageReport{}, fmt.Errorf("invalid cobertura XML: %w", err)
	}

	set := make(recordSet)
	for _, pkg := range doc.Packages {
		for _, class := range pkg.Classes {
			for _, line := range class.Lines {
				set.add(class.Filename, line.Number, statusFromCount(line.Hits))
			}
		}
	}

	var sources []string
	for _, src := range doc.Sources {
		if src = strings.TrimSpace(src); src != "" {
			sources = append(sources, src)
		}
	}
	return schema.CoverageReport{
		Format:  schema.CoberturaFormat,
		Sources: sources,
		Records: set.records(),
	}, nil
}
