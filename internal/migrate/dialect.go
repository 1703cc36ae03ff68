package migrate

import "fmt"

// Dialect holds the engine-specific SQL fragments the steps need. Everything
// else in the migrations is plain SQL shared by SQLite and PostgreSQL.
type Dialect struct {
	Name     string
	BlobType string
	// TextToBytes and BytesToText wrap a column expression in a lossless
	// UTF-8 encode or decode.
	TextToBytes func(expr string) string
	BytesToText func(expr string) string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		BlobType:    "BLOB",
		TextToBytes: func(expr string) string { return fmt.Sprintf("CAST(%s AS BLOB)", expr) },
		BytesToText: func(expr string) string { return fmt.Sprintf("CAST(%s AS TEXT)", expr) },
	}

	Postgres = Dialect{
		Name:        "postgres",
		BlobType:    "BYTEA",
		TextToBytes: func(expr string) string { return fmt.Sprintf("convert_to(%s, 'UTF8')", expr) },
		BytesToText: func(expr string) string { return fmt.Sprintf("convert_from(%s, 'UTF8')", expr) },
	}
)

// DialectFor picks the dialect matching a gorm dialector name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case SQLite.Name:
		return SQLite, nil
	case Postgres.Name:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database dialect %q", name)
	}
}
