// Package changelog loads changelogs: ordered lists of changesets describing
// schema migrations.
//
// Changelogs are located through an fs.FS resource accessor. SearchPath
// combines several file systems the way a classpath does: the first entry
// holding the resource wins.
package changelog

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/getpup/pupmigrate"
)

const checksumVersion = "1"

// ChangeLog is a parsed changelog with includes already expanded.
type ChangeLog struct {
	// Path is the logical path the changelog was loaded from.
	Path string

	// ChangeSets are the changesets in execution order.
	ChangeSets []ChangeSet
}

// ChangeSet is a single, atomically applied migration step.
type ChangeSet struct {
	ID     string
	Author string

	// Path is the logical path of the file that declared the changeset.
	Path string

	// Statements are the SQL statements to run, already split.
	Statements []string

	// Rollback are the statements undoing the changeset.
	Rollback []string

	// RunAlways reruns the changeset on every update.
	RunAlways bool

	// RunOnChange reruns the changeset when its checksum changes
	// instead of failing validation.
	RunOnChange bool

	// FailOnError aborts the update when a statement fails.
	// When false the failure is logged and the changeset is left unapplied.
	FailOnError bool

	Contexts []string
	Labels   []string

	// DBMS limits the changeset to the listed dialect short names.
	DBMS []string

	Comment     string
	Description string
}

// Key returns the identity of the changeset.
func (c ChangeSet) Key() string {
	return pupmigrate.ChangeSetKey(c.Path, c.ID, c.Author)
}

// Checksum returns a digest of the changeset statements.
// Whitespace differences outside quoted text do not change the checksum.
func (c ChangeSet) Checksum() string {
	h := md5.New()
	for _, stmt := range c.Statements {
		h.Write([]byte(normalizeWhitespace(stmt)))
		h.Write([]byte{0})
	}
	return checksumVersion + ":" + hex.EncodeToString(h.Sum(nil))
}

// normalizeWhitespace collapses whitespace runs outside quotes into one space
// and drops whitespace next to punctuation, so "t (a, b)" and "t(\n  a,b\n)" agree.
func normalizeWhitespace(stmt string) string {
	var (
		b       strings.Builder
		quote   byte
		last    byte
		pending bool
	)
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			last = c
			continue
		}
		if isSpace(c) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 && !isPunct(c) && !isPunct(last) {
			b.WriteByte(' ')
		}
		pending = false
		if c == '\'' || c == '"' || c == '`' {
			quote = c
		}
		b.WriteByte(c)
		last = c
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isPunct(c byte) bool {
	return strings.IndexByte("(),;=", c) >= 0
}

// MatchesDBMS reports whether the changeset applies to the dialect.
// An empty DBMS list matches every dialect. A leading "!" excludes a dialect.
func (c ChangeSet) MatchesDBMS(shortName string) bool {
	if len(c.DBMS) == 0 {
		return true
	}
	included := false
	onlyExclusions := true
	for _, dbms := range c.DBMS {
		if name, ok := strings.CutPrefix(dbms, "!"); ok {
			if strings.EqualFold(name, shortName) {
				return false
			}
			continue
		}
		onlyExclusions = false
		if dbms == "all" || strings.EqualFold(dbms, shortName) {
			included = true
		}
	}
	return included || onlyExclusions
}

// MatchesContexts reports whether the changeset runs for the requested contexts.
// A changeset without contexts, or a run without contexts, always matches.
func (c ChangeSet) MatchesContexts(contexts []string) bool {
	return intersects(c.Contexts, contexts)
}

// MatchesLabels reports whether the changeset runs for the requested labels.
func (c ChangeSet) MatchesLabels(labels []string) bool {
	return intersects(c.Labels, labels)
}

func intersects(declared, requested []string) bool {
	if len(declared) == 0 || len(requested) == 0 {
		return true
	}
	for _, d := range declared {
		if slices.ContainsFunc(requested, func(r string) bool { return strings.EqualFold(r, d) }) {
			return true
		}
	}
	return false
}

// Find returns the changeset with the given key.
func (l *ChangeLog) Find(key string) (ChangeSet, bool) {
	for _, cs := range l.ChangeSets {
		if cs.Key() == key {
			return cs, true
		}
	}
	return ChangeSet{}, false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
