// Package all registers every built-in storage backend ("sqlite",
// "postgres", "mssql") with the storage factory. Import it for side effects.
package all

import (
	_ "rxetl/internal/storage/mssql"
	_ "rxetl/internal/storage/postgres"
	_ "rxetl/internal/storage/sqlite"
)
