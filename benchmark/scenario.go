package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Scenario describes one synthetic repository: how many source files it has,
// how long they are, how many of them the head commit touches and how many
// coverage reports are fed to a single run.
type Scenario struct {
	Name         string
	Files        int
	LinesPerFile int
	ChangedEvery int // every Nth file gets new lines in the head commit
	Inputs       int // coverage reports, each covering every file with a shifted hit pattern
}

// DefaultScenarios grow roughly tenfold in changed lines per step.
var DefaultScenarios = []Scenario{
	{Name: "small", Files: 40, LinesPerFile: 120, ChangedEvery: 2, Inputs: 1},
	{Name: "medium", Files: 400, LinesPerFile: 300, ChangedEvery: 3, Inputs: 2},
	{Name: "large", Files: 2000, LinesPerFile: 400, ChangedEvery: 4, Inputs: 4},
}

const baseBranch = "bench-base"

// Fixture is a generated repository plus the coverage files describing its head commit.
type Fixture struct {
	Dir      string
	Coverage []string
}

func sourcePath(i int) string {
	return fmt.Sprintf("pkg%02d/module_%04d.py", i%25, i)
}

// baseSource is the content of file i at the base branch.
func baseSource(i, lines int) string {
	var b strings.Builder
	for n := 1; n <= lines; n++ {
		fmt.Fprintf(&b, "value_%d_%d = %d\n", i, n, n)
	}
	return b.String()
}

// headSource inserts one new line after every tenth base line.
func headSource(i, lines int) string {
	var b strings.Builder
	for n := 1; n <= lines; n++ {
		fmt.Fprintf(&b, "value_%d_%d = %d\n", i, n, n)
		if n%10 == 0 {
			fmt.Fprintf(&b, "added_%d_%d = value_%d_%d * 2\n", i, n, i, n)
		}
	}
	return b.String()
}

// headLineCount is the number of lines headSource produces when the file changed.
func headLineCount(lines int) int {
	return lines + lines/10
}

// coberturaInput renders a Cobertura report for the head commit. Report k marks
// a line covered when (line+k) is divisible by the number of inputs, so the
// merged result is fully covered only when every input is present.
func coberturaInput(sc Scenario, k int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" ?>` + "\n")
	b.WriteString(`<coverage version="7.4"><sources><source>.</source></sources><packages><package name="bench"><classes>` + "\n")
	for i := range sc.Files {
		lines := sc.LinesPerFile
		if i%sc.ChangedEvery == 0 {
			lines = headLineCount(lines)
		}
		fmt.Fprintf(&b, `<class name="m%d" filename="%s"><lines>`, i, sourcePath(i))
		for n := 1; n <= lines; n++ {
			hits := 0
			if (n+k)%sc.Inputs == 0 {
				hits = 1
			}
			fmt.Fprintf(&b, `<line number="%d" hits="%d"/>`, n, hits)
		}
		b.WriteString("</lines></class>\n")
	}
	b.WriteString("</classes></package></packages></coverage>\n")
	return b.String()
}

// Generate writes sc into a fresh git repository under root.
func Generate(ctx context.Context, root string, sc Scenario) (Fixture, error) {
	dir := filepath.Join(root, sc.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Fixture{}, err
	}
	git := func(args ...string) error {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, out)
		}
		return nil
	}
	writeSources := func(render func(i, lines int) string, changedOnly bool) error {
		for i := range sc.Files {
			if changedOnly && i%sc.ChangedEvery != 0 {
				continue
			}
			p := filepath.Join(dir, sourcePath(i))
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(p, []byte(render(i, sc.LinesPerFile)), 0o644); err != nil {
				return err
			}
		}
		return nil
	}

	if err := git("init", "-q"); err != nil {
		return Fixture{}, err
	}
	if err := writeSources(baseSource, false); err != nil {
		return Fixture{}, err
	}
	for _, args := range [][]string{
		{"add", "-A"},
		{"-c", "user.name=bench", "-c", "user.email=bench@example.com", "commit", "-q", "-m", "base"},
		{"branch", baseBranch},
	} {
		if err := git(args...); err != nil {
			return Fixture{}, err
		}
	}
	if err := writeSources(headSource, true); err != nil {
		return Fixture{}, err
	}
	for _, args := range [][]string{
		{"add", "-A"},
		{"-c", "user.name=bench", "-c", "user.email=bench@example.com", "commit", "-q", "-m", "head"},
	} {
		if err := git(args...); err != nil {
			return Fixture{}, err
		}
	}

	fx := Fixture{Dir: dir}
	for k := range sc.Inputs {
		p := filepath.Join(root, fmt.Sprintf("%s-coverage-%d.xml", sc.Name, k))
		if err := os.WriteFile(p, []byte(coberturaInput(sc, k)), 0o644); err != nil {
			return Fixture{}, err
		}
		fx.Coverage = append(fx.Coverage, p)
	}
	return fx, nil
}

// ChangedLines is the number of added lines the diff of sc contains.
func (sc Scenario) ChangedLines() int {
	changed := (sc.Files + sc.ChangedEvery - 1) / sc.ChangedEvery
	return changed * (sc.LinesPerFile / 10)
}
