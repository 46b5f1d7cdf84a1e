package changelog

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/getpup/pupmigrate"
)

var (
	headerRegex    = regexp.MustCompile(`(?i)^--\s*liquibase\s+formatted\s+sql\s*$`)
	changeSetRegex = regexp.MustCompile(`(?i)^--\s*changeset\s+(\S+)(.*)$`)
	rollbackRegex  = regexp.MustCompile(`(?i)^--\s*rollback(?:\s+(.*))?$`)
	commentRegex   = regexp.MustCompile(`(?i)^--\s*comment:\s*(.*)$`)
)

// FormattedSQL parses SQL files annotated with changeset comments:
//
//	--liquibase formatted sql
//
//	--changeset alice:1 runOnChange:true context:dev
//	--comment: create the person table
//	CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT);
//	--rollback DROP TABLE person;
type FormattedSQL struct{}

type formattedChangeSet struct {
	cs              ChangeSet
	body            strings.Builder
	rollback        strings.Builder
	splitStatements bool
	endDelimiter    string
}

// Parse implements Parser.
func (FormattedSQL) Parse(_ *Loader, name string, data []byte) ([]ChangeSet, error) {
	var (
		out       []ChangeSet
		current   *formattedChangeSet
		sawHeader bool
		lineNo    int
	)

	finish := func() {
		if current == nil {
			return
		}
		cs := current.cs
		body := current.body.String()
		if current.splitStatements {
			cs.Statements = SplitStatements(body, current.endDelimiter)
		} else if stmt := strings.TrimSpace(body); stmt != "" {
			cs.Statements = []string{stmt}
		}
		cs.Rollback = SplitStatements(current.rollback.String(), current.endDelimiter)
		out = append(out, cs)
		current = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !sawHeader {
			if trimmed == "" {
				continue
			}
			if !headerRegex.MatchString(trimmed) {
				return nil, fmt.Errorf("%w: %s line %d: missing '--liquibase formatted sql' header", pupmigrate.ErrInvalidChangelog, name, lineNo)
			}
			sawHeader = true
			continue
		}

		if m := changeSetRegex.FindStringSubmatch(trimmed); m != nil {
			finish()
			next, err := parseChangeSetHeader(name, m[1], m[2])
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", pupmigrate.ErrInvalidChangelog, name, lineNo, err)
			}
			current = next
			continue
		}

		if current == nil {
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			return nil, fmt.Errorf("%w: %s line %d: statement outside of a changeset", pupmigrate.ErrInvalidChangelog, name, lineNo)
		}

		if m := rollbackRegex.FindStringSubmatch(trimmed); m != nil {
			current.rollback.WriteString(m[1])
			current.rollback.WriteByte('\n')
			continue
		}
		if m := commentRegex.FindStringSubmatch(trimmed); m != nil {
			current.cs.Comment = strings.TrimSpace(m[1])
			continue
		}

		current.body.WriteString(line)
		current.body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("%w: %s: missing '--liquibase formatted sql' header", pupmigrate.ErrInvalidChangelog, name)
	}
	finish()

	return out, nil
}

func parseChangeSetHeader(name, identity, attrs string) (*formattedChangeSet, error) {
	author, id, ok := strings.Cut(identity, ":")
	if !ok || author == "" || id == "" {
		return nil, fmt.Errorf("changeset %q must be written as author:id", identity)
	}

	fcs := &formattedChangeSet{
		cs: ChangeSet{
			ID:          id,
			Author:      author,
			Path:        name,
			FailOnError: true,
			Description: "sql",
		},
		splitStatements: true,
		endDelimiter:    DefaultDelimiter,
	}

	for _, attr := range strings.Fields(attrs) {
		key, value, ok := strings.Cut(attr, ":")
		if !ok {
			return nil, fmt.Errorf("attribute %q must be written as key:value", attr)
		}
		value = strings.Trim(value, `"'`)

		var err error
		switch strings.ToLower(key) {
		case "runalways":
			fcs.cs.RunAlways, err = strconv.ParseBool(value)
		case "runonchange":
			fcs.cs.RunOnChange, err = strconv.ParseBool(value)
		case "failonerror":
			fcs.cs.FailOnError, err = strconv.ParseBool(value)
		case "splitstatements":
			fcs.splitStatements, err = strconv.ParseBool(value)
		case "enddelimiter":
			fcs.endDelimiter = value
		case "context", "contexts", "contextfilter":
			fcs.cs.Contexts = splitList(value)
		case "labels":
			fcs.cs.Labels = splitList(value)
		case "dbms":
			fcs.cs.DBMS = splitList(value)
		default:
			// unknown attributes are accepted for forward compatibility
		}
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", key, err)
		}
	}

	return fcs, nil
}
