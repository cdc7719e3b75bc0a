package host

import (
	"database/sql"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Custom scalar SQL functions are a host capability: the host process
// registers Go implementations by name, guests declare which names they rely
// on (OpRegisterFunc) and receive a query error when a name is unavailable.
// Function bodies never cross the WASM boundary.
//
// Installation goes through a wrapping SQLite driver whose ConnectHook
// registers every function on each new engine connection, so the whole pool
// behind a guest handle sees the same function set.

// FuncDriverName is the database/sql driver name of the function-aware
// SQLite driver the host registers on first use.
const FuncDriverName = "wasmlite-sqlite3"

var (
	funcMu         sync.Mutex
	scalarFuncs    = make(map[string]any)
	funcDriverOnce sync.Once
)

// RegisterScalarFunc registers a pure scalar function under the given SQL
// name. The implementation follows mattn/go-sqlite3's RegisterFunc contract:
// any func whose arguments and return type map to SQLite types, e.g.
//
//	host.RegisterScalarFunc("shout", func(s string) string {
//	    return strings.ToUpper(s)
//	})
//
// Must be called before connections are opened; connections established
// earlier do not see later registrations.
func RegisterScalarFunc(name string, impl any) {
	funcMu.Lock()
	defer funcMu.Unlock()
	scalarFuncs[name] = impl
}

func scalarFuncRegistered(name string) bool {
	funcMu.Lock()
	defer funcMu.Unlock()
	_, ok := scalarFuncs[name]
	return ok
}

func registerFuncDriver() {
	funcDriverOnce.Do(func() {
		sql.Register(FuncDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(sc *sqlite3.SQLiteConn) error {
				funcMu.Lock()
				defer funcMu.Unlock()
				for name, impl := range scalarFuncs {
					if err := sc.RegisterFunc(name, impl, true); err != nil {
						return err
					}
				}
				return nil
			},
		})
	})
}
