package storage

import (
	"strings"

	"github.com/google/shlex"

	"github.com/runger/teamseek/internal/query"
)

// Search modifiers recognized in query text.
const (
	modExt  = "ext:"
	modIn   = "in:"
	modFrom = "from:"
)

// matcher is an effective query split into free words and modifiers.
type matcher struct {
	words      []string // lowercased words and quoted phrases
	extensions []string // ext: values, without leading dots
	channels   []string // in: values, without leading '#'
	authors    []string // from: values, without leading '@'
	or         bool
}

// parseMatcher tokenizes q. Quoted phrases stay whole. Text with an
// unbalanced quote falls back to whitespace splitting.
func parseMatcher(q query.Effective) matcher {
	tokens, err := shlex.Split(q.Terms)
	if err != nil {
		tokens = strings.Fields(strings.ReplaceAll(q.Terms, `"`, " "))
	}

	m := matcher{or: q.IsOrSearch}
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch {
		case tok == "":
		case strings.HasPrefix(tok, modExt):
			if v := strings.TrimPrefix(strings.TrimPrefix(tok, modExt), "."); v != "" {
				m.extensions = appendUnique(m.extensions, v)
			}
		case strings.HasPrefix(tok, modIn):
			if v := strings.TrimPrefix(strings.TrimPrefix(tok, modIn), "#"); v != "" {
				m.channels = appendUnique(m.channels, v)
			}
		case strings.HasPrefix(tok, modFrom):
			if v := strings.TrimPrefix(strings.TrimPrefix(tok, modFrom), "@"); v != "" {
				m.authors = appendUnique(m.authors, v)
			}
		default:
			m.words = appendUnique(m.words, tok)
		}
	}
	return m
}

// empty reports whether the matcher has nothing to restrict on, in which
// case nothing matches.
func (m matcher) empty() bool {
	return len(m.words) == 0 && len(m.extensions) == 0 &&
		len(m.channels) == 0 && len(m.authors) == 0
}

// clause appends the SQL conditions for m to where and args. column is the
// normalized text column words match against. ext: applies only when
// extColumn is non-empty. Channels are matched on the joined alias c.
func (m matcher) clause(column, extColumn, authorColumn string, where []string, args []any) ([]string, []any) {
	if len(m.words) > 0 {
		conds := make([]string, len(m.words))
		for i, w := range m.words {
			conds[i] = column + ` LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(w)+"%")
		}
		joiner := " AND "
		if m.or {
			joiner = " OR "
		}
		where = append(where, "("+strings.Join(conds, joiner)+")")
	}
	if extColumn != "" && len(m.extensions) > 0 {
		where = append(where, extColumn+" IN ("+placeholders(len(m.extensions))+")")
		for _, e := range m.extensions {
			args = append(args, e)
		}
	}
	if len(m.channels) > 0 {
		where = append(where, "LOWER(c.name) IN ("+placeholders(len(m.channels))+")")
		for _, ch := range m.channels {
			args = append(args, ch)
		}
	}
	if len(m.authors) > 0 {
		where = append(where, "LOWER("+authorColumn+") IN ("+placeholders(len(m.authors))+")")
		for _, a := range m.authors {
			args = append(args, a)
		}
	}
	return where, args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
