// Package all registers every storage backend with the factory. Binaries
// blank-import this package; config selects which backend actually runs.
package all

import (
	_ "github.com/ChronoBoot/loan-score/internal/storage/mssql"
	_ "github.com/ChronoBoot/loan-score/internal/storage/postgres"
	_ "github.com/ChronoBoot/loan-score/internal/storage/sqlite"
)
