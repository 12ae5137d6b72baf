package coverage

import (
	"fmt"
	"io"

	"github.com/huangsam/diffcover/schema"
	"github.com/tidwall/gjson"
)

// GcovrDecoder reads the output of gcovr --json.
type GcovrDecoder struct{}

// Decode implements Decoder. Lines flagged gcovr/noncode are untracked.
func (GcovrDecoder) Decode(r io.Reader) (schema.CoverageReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return schema.CoverageReport{}, err
	}
	if !gjson.ValidBytes(data) {
		return schema.CoverageReport{}, fmt.Errorf("invalid gcovr JSON")
	}
	files := gjson.GetBytes(data, "files")
	if !files.IsArray() {
		return schema.CoverageReport{}, fmt.Errorf("gcovr JSON has no \"files\" array")
	}

	set := make(recordSet)
	for _, file := range files.Array() {
		p := file.Get("file").String()
		for _, line := range file.Get("lines").Array() {
			if line.Get("gcovr/noncode").Bool() {
				continue
			}
			set.add(p, int(line.Get("line_number").Int()), statusFromCount(line.Get("count").Int()))
		}
	}
	return schema.CoverageReport{Format: schema.GcovrFormat, Records: set.records()}, nil
}
