package testquality

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codesweep/codesweep/pkg/errors"
)

// FileCoverage is the line coverage of a single source file
type FileCoverage struct {
	FilePath     string  `json:"file_path"`
	TotalLines   int     `json:"total_lines"`
	CoveredLines int     `json:"covered_lines"`
	Percent      float64 `json:"percent"`
}

// CoverageData is the normalized view shared by every report format
type CoverageData struct {
	TotalLines      int                      `json:"total_lines"`
	CoveredLines    int                      `json:"covered_lines"`
	MissedLines     int                      `json:"missed_lines"`
	Percent         float64                  `json:"percent"`
	TotalBranches   int                      `json:"total_branches,omitempty"`
	CoveredBranches int                      `json:"covered_branches,omitempty"`
	Files           map[string]*FileCoverage `json:"files,omitempty"`
}

type coberturaLines struct {
	Covered         int `xml:"lines-covered,attr"`
	Valid           int `xml:"lines-valid,attr"`
	BranchesCovered int `xml:"branches-covered,attr"`
	BranchesValid   int `xml:"branches-valid,attr"`
}

type coberturaClass struct {
	Filename string         `xml:"filename,attr"`
	Lines    coberturaLines `xml:"lines"`
}

type coberturaPackage struct {
	Name    string           `xml:"name,attr"`
	Classes []coberturaClass `xml:"classes>class"`
}

type coberturaReport struct {
	XMLName  xml.Name           `xml:"coverage"`
	Packages []coberturaPackage `xml:"packages>package"`
}

// ParseCobertura reads a Cobertura-style XML report and aggregates line and
// branch counters across every class
func ParseCobertura(data []byte) (*CoverageData, error) {
	var report coberturaReport
	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("malformed Cobertura report: %v", err))
	}

	coverage := &CoverageData{Files: make(map[string]*FileCoverage)}
	for _, pkg := range report.Packages {
		for _, class := range pkg.Classes {
			coverage.TotalLines += class.Lines.Valid
			coverage.CoveredLines += class.Lines.Covered
			coverage.TotalBranches += class.Lines.BranchesValid
			coverage.CoveredBranches += class.Lines.BranchesCovered

			if class.Filename == "" {
				continue
			}
			file, ok := coverage.Files[class.Filename]
			if !ok {
				file = &FileCoverage{FilePath: class.Filename}
				coverage.Files[class.Filename] = file
			}
			file.TotalLines += class.Lines.Valid
			file.CoveredLines += class.Lines.Covered
		}
	}

	finalizeCoverage(coverage)
	return coverage, nil
}

type jsonCoverageTotals struct {
	NumStatements   int     `json:"num_statements"`
	CoveredLines    int     `json:"covered_lines"`
	MissingLines    int     `json:"missing_lines"`
	PercentCovered  float64 `json:"percent_covered"`
	NumBranches     int     `json:"num_branches"`
	CoveredBranches int     `json:"covered_branches"`
}

type jsonCoverageFile struct {
	Summary jsonCoverageTotals `json:"summary"`
}

type jsonCoverageReport struct {
	Totals *jsonCoverageTotals         `json:"totals"`
	Files  map[string]jsonCoverageFile `json:"files"`
}

// ParseJSONCoverage reads a coverage.py style JSON report keyed by the
// top-level totals object
func ParseJSONCoverage(data []byte) (*CoverageData, error) {
	var report jsonCoverageReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("malformed JSON coverage report: %v", err))
	}
	if report.Totals == nil {
		return nil, errors.ValidationError("JSON coverage report has no totals section")
	}

	coverage := &CoverageData{
		TotalLines:      report.Totals.NumStatements,
		CoveredLines:    report.Totals.CoveredLines,
		MissedLines:     report.Totals.MissingLines,
		Percent:         report.Totals.PercentCovered,
		TotalBranches:   report.Totals.NumBranches,
		CoveredBranches: report.Totals.CoveredBranches,
	}
	if coverage.MissedLines == 0 && coverage.TotalLines > coverage.CoveredLines {
		coverage.MissedLines = coverage.TotalLines - coverage.CoveredLines
	}

	if len(report.Files) > 0 {
		coverage.Files = make(map[string]*FileCoverage, len(report.Files))
		for path, file := range report.Files {
			coverage.Files[path] = &FileCoverage{
				FilePath:     path,
				TotalLines:   file.Summary.NumStatements,
				CoveredLines: file.Summary.CoveredLines,
				Percent:      file.Summary.PercentCovered,
			}
		}
	}

	return coverage, nil
}

// ParseGoCoverProfile reads the line profile emitted by go test -coverprofile
// and weights coverage by statement count
func ParseGoCoverProfile(data []byte) (*CoverageData, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || !strings.HasPrefix(scanner.Text(), "mode:") {
		return nil, errors.ValidationError("Go cover profile must start with a mode line")
	}

	coverage := &CoverageData{Files: make(map[string]*FileCoverage)}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.ValidationError(fmt.Sprintf("malformed cover profile line: %q", line))
		}
		colon := strings.LastIndex(fields[0], ":")
		if colon <= 0 {
			return nil, errors.ValidationError(fmt.Sprintf("malformed cover profile location: %q", fields[0]))
		}
		statements, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("malformed statement count: %q", fields[1]))
		}
		hits, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("malformed hit count: %q", fields[2]))
		}

		path := fields[0][:colon]
		file, ok := coverage.Files[path]
		if !ok {
			file = &FileCoverage{FilePath: path}
			coverage.Files[path] = file
		}
		file.TotalLines += statements
		coverage.TotalLines += statements
		if hits > 0 {
			file.CoveredLines += statements
			coverage.CoveredLines += statements
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("reading cover profile: %v", err))
	}

	finalizeCoverage(coverage)
	return coverage, nil
}

// LoadCoverageFile sniffs the report format from its content before falling
// back to the file extension
func LoadCoverageFile(path string) (*CoverageData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError(path, err)
	}

	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "mode:"):
		return ParseGoCoverProfile(data)
	case strings.HasPrefix(trimmed, "<"):
		return ParseCobertura(data)
	case strings.HasPrefix(trimmed, "{"):
		return ParseJSONCoverage(data)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return ParseCobertura(data)
	case ".json":
		return ParseJSONCoverage(data)
	}
	return nil, errors.ValidationError(fmt.Sprintf("unrecognized coverage report format: %s", path))
}

func finalizeCoverage(coverage *CoverageData) {
	coverage.MissedLines = coverage.TotalLines - coverage.CoveredLines
	if coverage.TotalLines > 0 {
		coverage.Percent = float64(coverage.CoveredLines) / float64(coverage.TotalLines) * 100
	}
	for _, file := range coverage.Files {
		if file.TotalLines > 0 {
			file.Percent = float64(file.CoveredLines) / float64(file.TotalLines) * 100
		}
	}
}
