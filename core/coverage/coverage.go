// Package coverage decodes coverage reports into per-line coverage records.
package coverage

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/diffcover/core/algo"
	"github.com/huangsam/diffcover/schema"
	"github.com/tidwall/gjson"
)

// Decoder turns one coverage report into a schema.CoverageReport.
type Decoder interface {
	Decode(r io.Reader) (schema.CoverageReport, error)
}

// DecoderFor returns the decoder for a concrete format. modulePath is only
// used by Go coverprofiles.
func DecoderFor(format schema.CoverageFormat, modulePath string) (Decoder, error) {
	switch format {
	case schema.CoberturaFormat:
		return CoberturaDecoder{}, nil
	case schema.JaCoCoFormat:
		return JaCoCoDecoder{}, nil
	case schema.GoCoverFormat:
		return GoCoverDecoder{ModulePath: modulePath}, nil
	case schema.CoveragePyFormat:
		return CoveragePyDecoder{}, nil
	case schema.GcovrFormat:
		return GcovrDecoder{}, nil
	default:
		return nil, fmt.Errorf("no decoder for coverage format %q", format)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat sniffs the report content. name is only used in errors.
func DetectFormat(name string, data []byte) (schema.CoverageFormat, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	switch {
	case bytes.HasPrefix(trimmed, []byte("mode:")):
		return schema.GoCoverFormat, nil
	case bytes.HasPrefix(trimmed, []byte("<")):
		root, err := xmlRootElement(trimmed)
		if err != nil {
			return "", fmt.Errorf("could not read XML in %s: %w", name, err)
		}
		switch root {
		case "coverage":
			return schema.CoberturaFormat, nil
		case "report":
			return schema.JaCoCoFormat, nil
		}
		return "", fmt.Errorf("unrecognized XML coverage root <%s> in %s", root, name)
	case bytes.HasPrefix(trimmed, []byte("{")):
		files := gjson.GetBytes(trimmed, "files")
		switch {
		case files.IsObject():
			return schema.CoveragePyFormat, nil
		case files.IsArray():
			return schema.GcovrFormat, nil
		}
		return "", fmt.Errorf("unrecognized JSON coverage layout in %s: expected a \"files\" object or array", name)
	}
	return "", fmt.Errorf("could not detect coverage format of %s; pass --format explicitly", name)
}

// xmlRootElement returns the local name of the first element in data.
func xmlRootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// recordSet accumulates line statuses per path while a report is decoded.
type recordSet map[string]schema.LineStatuses

func (s recordSet) add(path string, line int, status schema.LineStatus) {
	if path == "" || line <= 0 {
		return
	}
	lines, ok := s[path]
	if !ok {
		lines = make(schema.LineStatuses)
		s[path] = lines
	}
	lines[line] = algo.MergeLineStatus(lines[line], status)
}

// records returns the set as records sorted by path.
func (s recordSet) records() []schema.CoverageRecord {
	paths := slices.Sorted(maps.Keys(s))
	out := make([]schema.CoverageRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, schema.CoverageRecord{Path: p, Lines: s[p]})
	}
	return out
}

func statusFromCount(count int64) schema.LineStatus {
	if count > 0 {
		return schema.Covered
	}
	return schema.Uncovered
}
