package utils

import (
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// JoinWithAnd joins a slice of strings with AND operator
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

// JoinWithOr joins a slice of strings with OR operator
func JoinWithOr(clauses []string) string {
	return strings.Join(clauses, " OR ")
}

// EscapeLike makes user input literal inside a LIKE/ILIKE pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern is the %...% pattern for a substring search on s.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// AnyILike builds "(col1 ILIKE p OR col2 ILIKE p ...)" for one placeholder.
func AnyILike(placeholder string, columns ...string) string {
	clauses := make([]string, len(columns))
	for i, col := range columns {
		clauses[i] = fmt.Sprintf("%s ILIKE %s", col, placeholder)
	}
	return "(" + JoinWithOr(clauses) + ")"
}
