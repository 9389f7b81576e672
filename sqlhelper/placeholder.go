package sqlhelper

import "strings"

// MarkerGroup renders a parenthesized group of columnCount positional
// markers, e.g. MarkerGroup(3) == "(?, ?, ?)". A zero count yields "()".
func MarkerGroup(columnCount int) string {
	var b strings.Builder
	writeMarkerGroup(&b, columnCount)
	return b.String()
}

func writeMarkerGroup(b *strings.Builder, columnCount int) {
	b.WriteString("(")
	for i := 0; i < columnCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	b.WriteString(")")
}

// ValuesClause renders "VALUES " followed by rowCount marker groups joined by
// ", ". A zero rowCount yields "VALUES " with no groups.
func ValuesClause(rowCount, columnCount int) string {
	var group strings.Builder
	writeMarkerGroup(&group, columnCount)
	g := group.String()

	var b strings.Builder
	if rowCount > 0 {
		b.Grow(len("VALUES ") + rowCount*(len(g)+2))
	}
	b.WriteString("VALUES ")
	for i := 0; i < rowCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g)
	}
	return b.String()
}

// BatchStatement builds the multi-row INSERT text executed for one batch:
// prefix, a space, the VALUES clause, a space, then suffix.
func BatchStatement(prefix string, rowCount, columnCount int, suffix string) string {
	return prefix + " " + ValuesClause(rowCount, columnCount) + " " + suffix
}
