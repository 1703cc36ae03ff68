package model

// RouteType distinguishes bus and tram lines.
type RouteType string

const (
	RouteTypeBus  RouteType = "bus"
	RouteTypeTram RouteType = "tram"
)

// Valid reports whether t is one of the known route types.
func (t RouteType) Valid() bool {
	return t == RouteTypeBus || t == RouteTypeTram
}

// Route is a transit line with its IBIS command codes and ALFA sign payload.
// Column names follow the schema produced by the latest migration.
type Route struct {
	ID                 string    `gorm:"column:id;primaryKey" json:"id"`
	Type               RouteType `gorm:"column:type;not null" json:"type"`
	Name               string    `gorm:"column:name;not null" json:"name"`
	IbisLineCmd        int       `gorm:"column:ibisLineCmd;not null" json:"ibisLineCmd"`
	IbisDestinationCmd int       `gorm:"column:ibisDestinationCmd;not null" json:"ibisDestinationCmd"`
	AlfaSignText       string    `gorm:"column:alfaSignText;not null" json:"alfaSignText"`
	AlfaSignBinFile    string    `gorm:"column:alfaSignBinFile;not null" json:"alfaSignBinFile"`
}

// TableName pins the table name; migrations create it by hand.
func (Route) TableName() string {
	return "routes"
}

// DefaultBinFile is the sign binary name derived from a route id.
func DefaultBinFile(id string) string {
	return id + ".bin"
}
