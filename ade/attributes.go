package ade

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// attributeColumns is the number of '#'-separated columns per line.
const attributeColumns = 6

// AttributeRecord is one parsed line of an _atr.txt file.
type AttributeRecord struct {
	// Instance is the per-image instance number at this part level.
	Instance int

	// PartLevel is 0 for whole objects, >0 for part hierarchy depth.
	PartLevel int

	// Occluded indicates the instance is partially hidden.
	Occluded bool

	// RawName is the free-text name column.
	RawName string

	// ClassName is the wordnet-derived class name column.
	ClassName string

	// Attributes are the free-text attribute tokens in file order.
	Attributes []string
}

// ParseAttributes parses an _atr.txt file into its records, preserving
// line order. In lenient mode malformed lines are skipped with a
// warning and counted in skipped; otherwise parsing stops at the first
// malformed line with an AttributeParseError carrying the line number.
func ParseAttributes(path string, lenient bool, logger *slog.Logger) (records []AttributeRecord, skipped int, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open attribute file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		rec, perr := parseAttributeLine(scanner.Text())
		if perr != nil {
			if lenient {
				skipped++
				logger.Warn("skipping malformed attribute line",
					"path", path, "line", lineno, "error", perr)
				continue
			}
			return nil, skipped, &AttributeParseError{Path: path, Line: lineno, Reason: perr.Error()}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read attribute file %s: %w", path, err)
	}

	return records, skipped, nil
}

func parseAttributeLine(line string) (AttributeRecord, error) {
	var rec AttributeRecord

	cols := strings.Split(line, "#")
	if len(cols) != attributeColumns {
		return rec, fmt.Errorf("expected %d '#'-separated columns, got %d", attributeColumns, len(cols))
	}

	instance, err := strconv.Atoi(strings.TrimSpace(cols[0]))
	if err != nil {
		return rec, fmt.Errorf("instance number %q is not an integer", strings.TrimSpace(cols[0]))
	}
	if instance <= 0 {
		return rec, fmt.Errorf("instance number must be positive, got %d", instance)
	}

	level, err := strconv.Atoi(strings.TrimSpace(cols[1]))
	if err != nil {
		return rec, fmt.Errorf("part level %q is not an integer", strings.TrimSpace(cols[1]))
	}
	if level < 0 {
		return rec, fmt.Errorf("part level must not be negative, got %d", level)
	}

	var occluded bool
	switch strings.TrimSpace(cols[2]) {
	case "1":
		occluded = true
	case "0":
		occluded = false
	default:
		return rec, fmt.Errorf("occluded flag must be 0 or 1, got %q", strings.TrimSpace(cols[2]))
	}

	rec.Instance = instance
	rec.PartLevel = level
	rec.Occluded = occluded
	rec.RawName = strings.TrimSpace(cols[3])
	rec.ClassName = strings.TrimSpace(cols[4])
	rec.Attributes = parseAttributeList(cols[5])
	return rec, nil
}

// parseAttributeList splits the double-quoted, comma-separated
// attribute column into trimmed tokens. Empty tokens are dropped.
func parseAttributeList(col string) []string {
	col = strings.TrimSpace(col)
	col = strings.TrimPrefix(col, `"`)
	col = strings.TrimSuffix(col, `"`)

	var attrs []string
	for _, tok := range strings.Split(col, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			attrs = append(attrs, tok)
		}
	}
	return attrs
}
