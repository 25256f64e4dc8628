// Package all links every tenantcfg backend into the binary. Import it for
// side effects when the backend kind is chosen at runtime.
package all

import (
	_ "sheetfeed/internal/tenantcfg/mssql"
	_ "sheetfeed/internal/tenantcfg/postgres"
	_ "sheetfeed/internal/tenantcfg/sqlite"
)
