package changelog

import "strings"

// DefaultDelimiter separates statements when no endDelimiter is given.
const DefaultDelimiter = ";"

// SplitStatements splits sql on delimiter. Delimiters inside quoted strings,
// quoted identifiers, and comments do not split. Empty statements are dropped.
//
// The default ";" ends a statement wherever it appears. Any other delimiter,
// such as "GO" or "/", only splits when it stands alone on its own line,
// compared case-insensitively, so it never cuts through identifiers or expressions.
func SplitStatements(sql, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	inline := delimiter == DefaultDelimiter

	var (
		out     []string
		current strings.Builder
		quote   byte
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" && !onlyComments(stmt) {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				// doubled quote is an escaped quote
				if i+1 < len(sql) && sql[i+1] == quote {
					current.WriteByte(sql[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		if !inline && (i == 0 || sql[i-1] == '\n') {
			if n, ok := delimiterLine(sql[i:], delimiter); ok {
				flush()
				i += n - 1
				continue
			}
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			current.WriteByte(c)
		case strings.HasPrefix(sql[i:], "--"):
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			current.WriteString(sql[i : i+end])
			i += end - 1
		case strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql) - i
			} else {
				end += 4
			}
			current.WriteString(sql[i : i+end])
			i += end - 1
		case inline && strings.HasPrefix(sql[i:], delimiter):
			flush()
			i += len(delimiter) - 1
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return out
}

// delimiterLine reports whether the line starting at rest holds only delimiter
// and returns the length of the line including its newline.
func delimiterLine(rest, delimiter string) (int, bool) {
	n := strings.IndexByte(rest, '\n')
	if n < 0 {
		n = len(rest)
	} else {
		n++
	}
	return n, strings.EqualFold(strings.TrimSpace(rest[:n]), delimiter)
}

func onlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
