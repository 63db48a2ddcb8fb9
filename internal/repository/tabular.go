package repository

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

// RepairText corrects two classes of damage in raw tabular text, line by
// line: a line with an odd number of quote characters has every quote
// stripped, and a line whose comma-separated field count differs from
// expectedFields is truncated or padded with empty trailing fields. The
// second return reports whether anything changed; well-formed input passes
// through untouched.
func RepairText(raw string, expectedFields int) (string, bool) {
	lines := strings.Split(raw, "\n")
	changed := false
	for i, line := range lines {
		repaired := repairLine(line, expectedFields)
		if repaired != line {
			lines[i] = repaired
			changed = true
		}
	}
	if !changed {
		return raw, false
	}
	return strings.Join(lines, "\n"), true
}

func repairLine(line string, expectedFields int) string {
	if strings.TrimSpace(line) == "" {
		return line
	}

	work := strings.TrimSuffix(line, "\r")
	hadCR := work != line

	if strings.Count(work, `"`)%2 == 1 {
		work = strings.ReplaceAll(work, `"`, "")
	}

	fields := strings.Split(work, ",")
	switch {
	case len(fields) > expectedFields:
		work = strings.Join(fields[:expectedFields], ",")
	case len(fields) < expectedFields:
		pad := make([]string, expectedFields-len(fields))
		work = strings.Join(append(fields, pad...), ",")
	}

	if hadCR {
		work += "\r"
	}
	return work
}

// readRepairedCSV loads a source file, retrying the parse exactly once after
// an in-place repair. The pre-repair content is preserved under a .bak
// sibling. The bool reports whether a repair was performed. Missing or
// irreparable files fail with an error naming the path.
func readRepairedCSV(path string, expectedFields int) ([][]string, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
				fmt.Sprintf("source file missing: %s", path))
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("source file unreadable: %s", path))
	}

	records, parseErr := parseCSV(raw, expectedFields)
	if parseErr == nil {
		return records, false, nil
	}

	repaired, changed := RepairText(string(raw), expectedFields)
	if !changed {
		return nil, false, appErrors.Wrap(parseErr, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("source file unparsable: %s", path))
	}

	if err := os.WriteFile(path+".bak", raw, 0o644); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("backup source file: %s", path))
	}
	if err := os.WriteFile(path, []byte(repaired), 0o644); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("rewrite source file: %s", path))
	}

	records, parseErr = parseCSV([]byte(repaired), expectedFields)
	if parseErr != nil {
		return nil, true, appErrors.Wrap(parseErr, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("source file unparsable after repair: %s", path))
	}
	return records, true, nil
}

func parseCSV(data []byte, expectedFields int) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = expectedFields
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}
