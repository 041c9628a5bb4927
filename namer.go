package esql

import "strconv"

// paramNamer maps (entity alias, field name) pairs to parameter tokens that
// are pairwise distinct within one composed query. The default token is the
// bare field name; when a second entity reuses a field name the token is
// prefixed with its alias, and repeated claims of the same pair get a
// counter suffix. Scope of uniqueness is one Generator, never process-wide.
type paramNamer struct {
	stable map[string]string // alias+field -> memoized token
	owner  map[string]string // token -> alias that first claimed it
}

func newParamNamer() *paramNamer {
	return &paramNamer{
		stable: make(map[string]string),
		owner:  make(map[string]string),
	}
}

// name returns the stable token for a pair: repeated calls with the same
// (alias, field) yield the identical token.
func (n *paramNamer) name(alias, field string) string {
	key := alias + "\x00" + field
	if token, ok := n.stable[key]; ok {
		return token
	}
	token := n.claim(alias, field)
	n.stable[key] = token
	return token
}

// unique claims a fresh token on every call, so the same field can be
// filtered on more than once without colliding.
func (n *paramNamer) unique(alias, field string) string {
	return n.claim(alias, field)
}

func (n *paramNamer) claim(alias, field string) string {
	if _, taken := n.owner[field]; !taken {
		n.owner[field] = alias
		return field
	}

	base := field
	if n.owner[field] != alias {
		// A different entity already uses the bare name; the alias
		// prefix disambiguates the two.
		base = alias + "_" + field
		if _, taken := n.owner[base]; !taken {
			n.owner[base] = alias
			return base
		}
	}

	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if _, taken := n.owner[candidate]; !taken {
			n.owner[candidate] = alias
			return candidate
		}
	}
}
