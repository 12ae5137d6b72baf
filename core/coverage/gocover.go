package coverage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/diffcover/schema"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"
)

// GoCoverDecoder reads profiles written by go test -coverprofile. Profile
// paths carry the module path, which is stripped so they match the diff.
type GoCoverDecoder struct {
	ModulePath string
}

// Decode implements Decoder. Every line of a block with statements is
// tracked, and a line is covered when any block over it ran.
func (d GoCoverDecoder) Decode(r io.Reader) (schema.CoverageReport, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return schema.CoverageReport{}, fmt.Errorf("invalid Go coverprofile: %w", err)
	}

	set := make(recordSet)
	for _, prof := range profiles {
		p := d.trimModule(prof.FileName)
		for _, block := range prof.Blocks {
			if block.NumStmt == 0 {
				continue
			}
			status := statusFromCount(int64(block.Count))
			for line := block.StartLine; line <= block.EndLine; line++ {
				set.add(p, line, status)
			}
		}
	}
	return schema.CoverageReport{Format: schema.GoCoverFormat, Records: set.records()}, nil
}

func (d GoCoverDecoder) trimModule(name string) string {
	if d.ModulePath == "" {
		return name
	}
	if rest, ok := strings.CutPrefix(name, d.ModulePath+"/"); ok {
		return rest
	}
	return name
}

// ReadModulePath returns the module path declared by repoPath/go.mod, or ""
// when there is no go.mod.
func ReadModulePath(repoPath string) string {
	data, err := os.ReadFile(filepath.Join(repoPath, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}
