package changelog

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getpup/pupmigrate"
)

// YAML parses YAML changelogs:
//
//	databaseChangeLog:
//	  - changeSet:
//	      id: "1"
//	      author: alice
//	      changes:
//	        - sql:
//	            sql: CREATE TABLE person (id INTEGER PRIMARY KEY)
//	      rollback: DROP TABLE person
//	  - include:
//	      file: more.sql
//	      relativeToChangelogFile: true
//
// Only sql and sqlFile changes are supported.
type YAML struct{}

type yamlChangeLog struct {
	DatabaseChangeLog []yamlEntry `yaml:"databaseChangeLog"`
}

type yamlEntry struct {
	ChangeSet *yamlChangeSet `yaml:"changeSet"`
	Include   *yamlInclude   `yaml:"include"`
}

type yamlInclude struct {
	File                    string `yaml:"file"`
	RelativeToChangelogFile bool   `yaml:"relativeToChangelogFile"`
}

type yamlChangeSet struct {
	ID          string       `yaml:"id"`
	Author      string       `yaml:"author"`
	RunAlways   bool         `yaml:"runAlways"`
	RunOnChange bool         `yaml:"runOnChange"`
	FailOnError *bool        `yaml:"failOnError"`
	Context     string       `yaml:"context"`
	Labels      string       `yaml:"labels"`
	DBMS        string       `yaml:"dbms"`
	Comment     string       `yaml:"comment"`
	Changes     []yamlChange `yaml:"changes"`
	Rollback    yamlRollback `yaml:"rollback"`
}

type yamlChange struct {
	SQL     *yamlSQL     `yaml:"sql"`
	SQLFile *yamlSQLFile `yaml:"sqlFile"`
}

type yamlSQL struct {
	SQL             string `yaml:"sql"`
	SplitStatements *bool  `yaml:"splitStatements"`
	EndDelimiter    string `yaml:"endDelimiter"`
}

type yamlSQLFile struct {
	Path                    string `yaml:"path"`
	RelativeToChangelogFile bool   `yaml:"relativeToChangelogFile"`
	SplitStatements         *bool  `yaml:"splitStatements"`
	EndDelimiter            string `yaml:"endDelimiter"`
}

// yamlRollback accepts either a plain SQL string or a list of changes.
type yamlRollback struct {
	SQL     string
	Changes []yamlChange
}

func (r *yamlRollback) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&r.SQL)
	case yaml.SequenceNode:
		return node.Decode(&r.Changes)
	case yaml.MappingNode:
		var change yamlChange
		if err := node.Decode(&change); err != nil {
			return err
		}
		r.Changes = []yamlChange{change}
		return nil
	default:
		return fmt.Errorf("line %d: rollback must be a string or a list of changes", node.Line)
	}
}

// Parse implements Parser.
func (YAML) Parse(l *Loader, name string, data []byte) ([]ChangeSet, error) {
	var doc yamlChangeLog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pupmigrate.ErrInvalidChangelog, name, err)
	}

	var out []ChangeSet
	for i, entry := range doc.DatabaseChangeLog {
		switch {
		case entry.ChangeSet != nil:
			cs, err := entry.ChangeSet.toChangeSet(l, name)
			if err != nil {
				return nil, fmt.Errorf("%w: %s entry %d: %w", pupmigrate.ErrInvalidChangelog, name, i, err)
			}
			out = append(out, cs)
		case entry.Include != nil:
			target := entry.Include.File
			if entry.Include.RelativeToChangelogFile {
				target = path.Join(path.Dir(name), target)
			}
			included, err := l.Include(target)
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
		default:
			return nil, fmt.Errorf("%w: %s entry %d: expected changeSet or include", pupmigrate.ErrInvalidChangelog, name, i)
		}
	}

	return out, nil
}

func (y *yamlChangeSet) toChangeSet(l *Loader, name string) (ChangeSet, error) {
	if y.ID == "" || y.Author == "" {
		return ChangeSet{}, fmt.Errorf("changeSet requires id and author")
	}

	cs := ChangeSet{
		ID:          y.ID,
		Author:      y.Author,
		Path:        name,
		RunAlways:   y.RunAlways,
		RunOnChange: y.RunOnChange,
		FailOnError: y.FailOnError == nil || *y.FailOnError,
		Contexts:    splitList(y.Context),
		Labels:      splitList(y.Labels),
		DBMS:        splitList(y.DBMS),
		Comment:     y.Comment,
		Description: "sql",
	}

	statements, err := changeStatements(l, name, y.Changes)
	if err != nil {
		return ChangeSet{}, err
	}
	cs.Statements = statements

	if y.Rollback.SQL != "" {
		cs.Rollback = SplitStatements(y.Rollback.SQL, DefaultDelimiter)
	} else {
		rollback, err := changeStatements(l, name, y.Rollback.Changes)
		if err != nil {
			return ChangeSet{}, fmt.Errorf("rollback: %w", err)
		}
		cs.Rollback = rollback
	}

	return cs, nil
}

func changeStatements(l *Loader, name string, changes []yamlChange) ([]string, error) {
	var out []string
	for _, change := range changes {
		switch {
		case change.SQL != nil:
			out = append(out, split(change.SQL.SQL, change.SQL.SplitStatements, change.SQL.EndDelimiter)...)
		case change.SQLFile != nil:
			target := change.SQLFile.Path
			if change.SQLFile.RelativeToChangelogFile {
				target = path.Join(path.Dir(name), target)
			}
			data, err := l.ReadFile(target)
			if err != nil {
				return nil, err
			}
			out = append(out, split(string(data), change.SQLFile.SplitStatements, change.SQLFile.EndDelimiter)...)
		default:
			return nil, fmt.Errorf("unsupported change type (only sql and sqlFile are supported)")
		}
	}
	return out, nil
}

func split(sql string, splitStatements *bool, delimiter string) []string {
	if splitStatements != nil && !*splitStatements {
		if sql = strings.TrimSpace(sql); sql == "" {
			return nil
		}
		return []string{sql}
	}
	return SplitStatements(sql, delimiter)
}
