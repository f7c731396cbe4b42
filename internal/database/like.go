package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a LIKE pattern matching s anywhere. Wildcards in s match
// literally when the condition ends in ESCAPE '\'.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
