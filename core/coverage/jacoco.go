package coverage

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"

	"github.com/huangsam/diffcover/schema"
)

// JaCoCoDecoder reads JaCoCo XML. Paths are package-relative
// (com/acme/App.java), so they usually resolve through source roots.
type JaCoCoDecoder struct{}

type jacocoLine struct {
	Nr int   `xml:"nr,attr"`
	MI int64 `xml:"mi,attr"` // missed instructions
	CI int64 `xml:"ci,attr"` // covered instructions
}

type jacocoSourceFile struct {
	Name  string       `xml:"name,attr"`
	Lines []jacocoLine `xml:"line"`
}

type jacocoPackage struct {
	Name        string             `xml:"name,attr"`
	SourceFiles []jacocoSourceFile `xml:"sourcefile"`
}

// jacocoGroup covers both the report root and nested <group> elements.
type jacocoGroup struct {
	Groups   []jacocoGroup   `xml:"group"`
	Packages []jacocoPackage `xml:"package"`
}

// Decode implements Decoder. A line with covered instructions is covered, a
// line with only missed instructions is uncovered.
func (JaCoCoDecoder) Decode(r io.Reader) (schema.CoverageReport, error) {
	var doc struct {
		XMLName xml.Name `xml:"report"`
		jacocoGroup
	}
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return schema.CoverageReport{}, fmt.Errorf("invalid jacoco XML: %w", err)
	}

	set := make(recordSet)
	var walk func(g jacocoGroup)
	walk = func(g jacocoGroup) {
		for _, pkg := range g.Packages {
			for _, sf := range pkg.SourceFiles {
				p := path.Join(pkg.Name, sf.Name)
				for _, line := range sf.Lines {
					switch {
					case line.CI > 0:
						set.add(p, line.Nr, schema.Covered)
					case line.MI > 0:
						set.add(p, line.Nr, schema.Uncovered)
					}
				}
			}
		}
		for _, sub := range g.Groups {
			walk(sub)
		}
	}
	walk(doc.jacocoGroup)

	return schema.CoverageReport{Format: schema.JaCoCoFormat, Records: set.records()}, nil
}
