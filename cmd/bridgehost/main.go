// bridgehost runs a WASM guest module with access to host-side SQLite.
//
// The guest is instantiated with the env.sql_host_call import wired to a
// SQLHost whose databases live under the -data directory. After
// _initialize, the guest's exported run function is invoked.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	_ "modernc.org/sqlite"

	sqlhost "github.com/SquattingSocrates/wasmlite/sqlbridge/host"
	wasihost "github.com/SquattingSocrates/wasmlite/wasi/host"
)

func main() {
	wasmPath := flag.String("wasm", "", "path to the guest wasm module")
	dataDir := flag.String("data", ".", "directory guest database paths resolve under")
	engine := flag.String("engine", "", "database/sql driver name for the embedded engine (default: function-aware sqlite3)")
	flag.Parse()

	if *wasmPath == "" {
		log.Fatal("missing required flag: -wasm")
	}

	guestWasm, err := os.ReadFile(*wasmPath)
	if err != nil {
		log.Fatalf("Failed to read wasm module: %v", err)
	}

	sqlHost := sqlhost.New(sqlhost.Config{Driver: *engine, Root: *dataDir})
	defer sqlHost.Close()

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	if err := wasihost.Instantiate(ctx, r, sqlHost); err != nil {
		log.Fatalf("Failed to instantiate host module: %v", err)
	}

	mod, err := r.InstantiateWithConfig(
		ctx,
		guestWasm,
		wazero.NewModuleConfig().WithStartFunctions("_initialize"),
	)
	if err != nil {
		log.Fatalf("Failed to instantiate guest module: %v", err)
	}

	run := mod.ExportedFunction("run")
	if run == nil {
		log.Fatal("Guest module does not export a run function")
	}
	if _, err := run.Call(ctx); err != nil {
		log.Fatalf("Guest run failed: %v", err)
	}
}
