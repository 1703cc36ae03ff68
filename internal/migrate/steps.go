package migrate

import (
	"fmt"

	"gorm.io/gorm"
)

// Steps returns the route schema history in version order.
func Steps() []Step {
	return []Step{
		{Version: 1, Name: "create_routes", Apply: createRoutes},
		{Version: 2, Name: "ibis_columns_and_sign_bytes", Apply: ibisColumnsAndSignBytes},
		{Version: 3, Name: "split_sign_text_and_bin_file", Apply: splitSignTextAndBinFile},
	}
}

const typeCheck = `"type" TEXT NOT NULL CHECK ("type" IN ('bus', 'tram'))`

func createRoutes(tx *gorm.DB, _ Dialect) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS routes (
			"id" TEXT PRIMARY KEY,
			`+typeCheck+`,
			"name" TEXT NOT NULL,
			"command1" INTEGER NOT NULL,
			"command2" INTEGER NOT NULL,
			"text" TEXT NOT NULL
		)`,
	)
}

func ibisColumnsAndSignBytes(tx *gorm.DB, d Dialect) error {
	return execAll(tx,
		fmt.Sprintf(`CREATE TABLE routes_v2 (
			"id" TEXT PRIMARY KEY,
			%s,
			"name" TEXT NOT NULL,
			"ibisLineCmd" INTEGER NOT NULL,
			"ibisDestinationCmd" INTEGER NOT NULL,
			"alfaSignBytes" %s NOT NULL
		)`, typeCheck, d.BlobType),
		fmt.Sprintf(`INSERT INTO routes_v2 ("id", "type", "name", "ibisLineCmd", "ibisDestinationCmd", "alfaSignBytes")
			SELECT "id", "type", "name", "command1", "command2", %s FROM routes`, d.TextToBytes(`"text"`)),
		`DROP TABLE routes`,
		`ALTER TABLE routes_v2 RENAME TO routes`,
	)
}

func splitSignTextAndBinFile(tx *gorm.DB, d Dialect) error {
	return execAll(tx,
		fmt.Sprintf(`CREATE TABLE routes_v3 (
			"id" TEXT PRIMARY KEY,
			%s,
			"name" TEXT NOT NULL,
			"ibisLineCmd" INTEGER NOT NULL,
			"ibisDestinationCmd" INTEGER NOT NULL,
			"alfaSignText" TEXT NOT NULL,
			"alfaSignBinFile" TEXT NOT NULL
		)`, typeCheck),
		fmt.Sprintf(`INSERT INTO routes_v3 ("id", "type", "name", "ibisLineCmd", "ibisDestinationCmd", "alfaSignText", "alfaSignBinFile")
			SELECT "id", "type", "name", "ibisLineCmd", "ibisDestinationCmd", %s, "id" || '.bin' FROM routes`, d.BytesToText(`"alfaSignBytes"`)),
		`DROP TABLE routes`,
		`ALTER TABLE routes_v3 RENAME TO routes`,
	)
}

func execAll(tx *gorm.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("statement failed on %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
