package db

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

//go:embed schema.sql
var schemaTemplate string

var schema = template.Must(template.New("schema").Parse(schemaTemplate))

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable rejects table names that would need quoting, they are
// interpolated into statements since placeholders cannot name tables.
func ValidateTable(table string) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("invalid table name '%s'", table)
	}
	return nil
}

// Schema renders the DDL of the records table.
func Schema(table string) (string, error) {
	err := ValidateTable(table)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	err = schema.Execute(&out, struct{ Table string }{Table: table})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
