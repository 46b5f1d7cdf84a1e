package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSet_Key(t *testing.T) {
	cs := ChangeSet{ID: "1", Author: "alice", Path: "db/changelog.sql"}

	assert.Equal(t, "db/changelog.sql::1::alice", cs.Key())
}

func TestChangeSet_Checksum(t *testing.T) {
	cs := ChangeSet{Statements: []string{"CREATE TABLE a (id INT)", "SELECT 1"}}

	checksum := cs.Checksum()
	assert.Regexp(t, `^1:[0-9a-f]{32}$`, checksum)

	t.Run("ignores whitespace", func(t *testing.T) {
		other := ChangeSet{Statements: []string{"CREATE   TABLE a\n  (id INT)", " SELECT 1 "}}
		assert.Equal(t, checksum, other.Checksum())
	})

	t.Run("ignores whitespace inserted after punctuation", func(t *testing.T) {
		a := ChangeSet{Statements: []string{"CREATE TABLE person (id INTEGER PRIMARY KEY, name VARCHAR(50) NOT NULL)"}}
		b := ChangeSet{Statements: []string{"CREATE TABLE person (\n    id INTEGER PRIMARY KEY,\n    name VARCHAR(50) NOT NULL\n)"}}
		c := ChangeSet{Statements: []string{"CREATE TABLE person(id INTEGER PRIMARY KEY,name VARCHAR( 50 ) NOT NULL)"}}
		assert.Equal(t, a.Checksum(), b.Checksum())
		assert.Equal(t, a.Checksum(), c.Checksum())
	})

	t.Run("keeps whitespace inside quotes", func(t *testing.T) {
		a := ChangeSet{Statements: []string{"INSERT INTO t VALUES ('a b')"}}
		b := ChangeSet{Statements: []string{"INSERT INTO t VALUES ('a  b')"}}
		assert.NotEqual(t, a.Checksum(), b.Checksum())
	})

	t.Run("keeps word boundaries", func(t *testing.T) {
		a := ChangeSet{Statements: []string{"DROP TABLE ab"}}
		b := ChangeSet{Statements: []string{"DROP TABLE a b"}}
		assert.NotEqual(t, a.Checksum(), b.Checksum())
	})

	t.Run("changes with content", func(t *testing.T) {
		other := ChangeSet{Statements: []string{"CREATE TABLE a (id BIGINT)", "SELECT 1"}}
		assert.NotEqual(t, checksum, other.Checksum())
	})

	t.Run("statement boundaries matter", func(t *testing.T) {
		joined := ChangeSet{Statements: []string{"CREATE TABLE a (id INT) SELECT 1"}}
		assert.NotEqual(t, checksum, joined.Checksum())
	})

	t.Run("ignores identity and flags", func(t *testing.T) {
		other := cs
		other.ID = "2"
		other.RunAlways = true
		other.Rollback = []string{"DROP TABLE a"}
		assert.Equal(t, checksum, other.Checksum())
	})
}

func TestChangeSet_MatchesDBMS(t *testing.T) {
	tests := []struct {
		dbms []string
		name string
		want bool
	}{
		{nil, "sqlite", true},
		{[]string{"sqlite"}, "sqlite", true},
		{[]string{"SQLite"}, "sqlite", true},
		{[]string{"postgres"}, "sqlite", false},
		{[]string{"postgres", "sqlite"}, "sqlite", true},
		{[]string{"all"}, "mysql", true},
		{[]string{"!mysql"}, "sqlite", true},
		{[]string{"!mysql"}, "mysql", false},
		{[]string{"all", "!mysql"}, "mysql", false},
		{[]string{"postgres", "!mysql"}, "sqlite", false},
	}

	for _, tt := range tests {
		cs := ChangeSet{DBMS: tt.dbms}
		assert.Equal(t, tt.want, cs.MatchesDBMS(tt.name), "dbms=%v dialect=%s", tt.dbms, tt.name)
	}
}

func TestChangeSet_MatchesContextsAndLabels(t *testing.T) {
	cs := ChangeSet{Contexts: []string{"dev", "test"}, Labels: []string{"v1"}}

	assert.True(t, cs.MatchesContexts(nil), "no requested contexts matches everything")
	assert.True(t, cs.MatchesContexts([]string{"TEST"}))
	assert.False(t, cs.MatchesContexts([]string{"prod"}))
	assert.True(t, ChangeSet{}.MatchesContexts([]string{"prod"}), "changeset without contexts always runs")

	assert.True(t, cs.MatchesLabels([]string{"v1", "v2"}))
	assert.False(t, cs.MatchesLabels([]string{"v2"}))
	assert.True(t, cs.MatchesLabels(nil))
}

func TestChangeLog_Find(t *testing.T) {
	cl := &ChangeLog{ChangeSets: []ChangeSet{
		{ID: "1", Author: "alice", Path: "a.sql"},
		{ID: "2", Author: "bob", Path: "a.sql"},
	}}

	cs, ok := cl.Find("a.sql::2::bob")
	require.True(t, ok)
	assert.Equal(t, "bob", cs.Author)

	_, ok = cl.Find("a.sql::3::bob")
	assert.False(t, ok)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a , ,b "))
	assert.Nil(t, splitList(""))
}
