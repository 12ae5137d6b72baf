package coverage

import (
	"fmt"
	"io"

	"github.com/huangsam/diffcover/schema"
	"github.com/tidwall/gjson"
)

// CoveragePyDecoder reads the output of coverage json.
type CoveragePyDecoder struct{}

// Decode implements Decoder. executed_lines are covered and missing_lines
// are uncovered. Excluded lines stay untracked.
func (CoveragePyDecoder) Decode(r io.Reader) (schema.CoverageReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return schema.CoverageReport{}, err
	}
	if !gjson.ValidBytes(data) {
		return schema.CoverageReport{}, fmt.Errorf("invalid coverage.py JSON")
	}
	files := gjson.GetBytes(data, "files")
	if !files.IsObject() {
		return schema.CoverageReport{}, fmt.Errorf("coverage.py JSON has no \"files\" object")
	}

	set := make(recordSet)
	files.ForEach(func(key, value gjson.Result) bool {
		p := key.String()
		for _, line := range value.Get("missing_lines").Array() {
			set.add(p, int(line.Int()), schema.Uncovered)
		}
		for _, line := range value.Get("executed_lines").Array() {
			set.add(p, int(line.Int()), schema.Covered)
		}
		return true
	})
	return schema.CoverageReport{Format: schema.CoveragePyFormat, Records: set.records()}, nil
}
