package coordinate

import (
	"strings"

	"github.com/nerrad567/waveform-core/internal/infrastructure/database"
)

// insertTemplate is resolved against the record's declared fields.
const insertTemplate = "INSERT INTO coordinates ($table_fields) VALUES ($values) RETURNING $table_fields"

// resolveInsert expands insertTemplate for dialect d.
func resolveInsert(d database.Dialect) string {
	placeholders := make([]string, len(fields))
	for i := range fields {
		placeholders[i] = d.Placeholder(i + 1)
	}

	r := strings.NewReplacer(
		"$table_fields", strings.Join(fields, ", "),
		"$values", strings.Join(placeholders, ", "),
	)
	return r.Replace(insertTemplate)
}
