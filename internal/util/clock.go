package util

import "time"

// Now é substituível em testes.
var Now = func() time.Time { return time.Now().UTC() }

// Timestamp formata instante completo; ordena lexicograficamente.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DateStamp formata apenas a data (yyyy-mm-dd).
func DateStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
