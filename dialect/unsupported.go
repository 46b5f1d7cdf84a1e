package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UnsupportedShortName is the short name reported for connections no dialect supports.
const UnsupportedShortName = "unsupported"

// Unsupported is the fallback dialect for a connection no registered dialect recognises.
// It never matches a driver on its own and the migrator refuses to run against it.
type Unsupported struct {
	Driver driver.Driver
}

func (u Unsupported) ShortName() string { return UnsupportedShortName }

// ProductName names the driver type that could not be matched.
func (u Unsupported) ProductName() string {
	if u.Driver == nil {
		return "unknown"
	}
	return fmt.Sprintf("%T", u.Driver)
}

func (u Unsupported) Priority() int                 { return -1 }
func (u Unsupported) Supports(driver.Driver) bool   { return false }
func (u Unsupported) BindType() int                 { return sqlx.UNKNOWN }
func (u Unsupported) HistoryTableSQL(string) string { return "" }
func (u Unsupported) LockTableSQL(string) string    { return "" }
func (u Unsupported) LockRowSQL(string) string      { return "" }
func (u Unsupported) TransactionalDDL() bool        { return false }

// ProductVersion is unknown for an unsupported database.
func (u Unsupported) ProductVersion(context.Context, Queryer) (string, error) {
	return "unknown", nil
}

// IsUnsupported reports whether d is the Unsupported fallback.
func IsUnsupported(d Dialect) bool {
	if d == nil {
		return true
	}
	return d.ShortName() == UnsupportedShortName
}
