package changelog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/pupmigrate"
)

func TestYAML_Parse(t *testing.T) {
	fsys := fstest.MapFS{
		"db/changelog.yaml": {Data: []byte(`
databaseChangeLog:
  - changeSet:
      id: "1"
      author: alice
      comment: people table
      context: dev
      labels: v1
      dbms: sqlite
      changes:
        - sql:
            sql: CREATE TABLE person (id INTEGER PRIMARY KEY); CREATE INDEX idx ON person (id);
      rollback: DROP INDEX idx; DROP TABLE person;
  - changeSet:
      id: "2"
      author: bob
      runOnChange: true
      failOnError: false
      changes:
        - sqlFile:
            path: seed.sql
            relativeToChangelogFile: true
      rollback:
        - sql:
            sql: DELETE FROM person
  - include:
      file: more.sql
      relativeToChangelogFile: true
`)},
		"db/seed.sql": {Data: []byte("INSERT INTO person (id) VALUES (1);\nINSERT INTO person (id) VALUES (2);\n")},
		"db/more.sql": {Data: []byte("--liquibase formatted sql\n--changeset carol:3\nSELECT 1;\n")},
	}

	cl, err := NewLoader(fsys, nil).Load("db/changelog.yaml")
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 3)

	first := cl.ChangeSets[0]
	assert.Equal(t, "db/changelog.yaml::1::alice", first.Key())
	assert.Equal(t, "people table", first.Comment)
	assert.Equal(t, []string{"dev"}, first.Contexts)
	assert.Equal(t, []string{"v1"}, first.Labels)
	assert.Equal(t, []string{"sqlite"}, first.DBMS)
	assert.True(t, first.FailOnError)
	assert.Equal(t, []string{"CREATE TABLE person (id INTEGER PRIMARY KEY)", "CREATE INDEX idx ON person (id)"}, first.Statements)
	assert.Equal(t, []string{"DROP INDEX idx", "DROP TABLE person"}, first.Rollback)

	second := cl.ChangeSets[1]
	assert.True(t, second.RunOnChange)
	assert.False(t, second.FailOnError)
	assert.Equal(t, []string{"INSERT INTO person (id) VALUES (1)", "INSERT INTO person (id) VALUES (2)"}, second.Statements)
	assert.Equal(t, []string{"DELETE FROM person"}, second.Rollback)

	third := cl.ChangeSets[2]
	assert.Equal(t, "db/more.sql::3::carol", third.Key())
}

func TestYAML_SplitStatementsDisabled(t *testing.T) {
	data := []byte(`
databaseChangeLog:
  - changeSet:
      id: "1"
      author: alice
      changes:
        - sql:
            splitStatements: false
            sql: |
              CREATE TRIGGER t AFTER INSERT ON person BEGIN
                UPDATE person SET id = id;
              END;
`)

	changeSets, err := YAML{}.Parse(NewLoader(fstest.MapFS{}, nil), "changelog.yaml", data)
	require.NoError(t, err)
	require.Len(t, changeSets, 1)
	assert.Len(t, changeSets[0].Statements, 1)
}

func TestYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "databaseChangeLog: [unclosed"},
		{"missing author", "databaseChangeLog:\n  - changeSet:\n      id: \"1\"\n"},
		{"unknown entry", "databaseChangeLog:\n  - property:\n      name: x\n"},
		{"unsupported change", "databaseChangeLog:\n  - changeSet:\n      id: \"1\"\n      author: a\n      changes:\n        - createTable:\n            tableName: t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := YAML{}.Parse(NewLoader(fstest.MapFS{}, nil), "changelog.yaml", []byte(tt.data))
			assert.ErrorIs(t, err, pupmigrate.ErrInvalidChangelog)
		})
	}
}

func TestYAML_MissingSQLFile(t *testing.T) {
	data := []byte("databaseChangeLog:\n  - changeSet:\n      id: \"1\"\n      author: a\n      changes:\n        - sqlFile:\n            path: missing.sql\n")

	_, err := YAML{}.Parse(NewLoader(fstest.MapFS{}, nil), "changelog.yaml", data)
	assert.ErrorIs(t, err, pupmigrate.ErrChangelogNotFound)
}
