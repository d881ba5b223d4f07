package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/karhula/forumdb/internal/config"
	"github.com/karhula/forumdb/internal/db"
	"github.com/karhula/forumdb/internal/message"
	"github.com/karhula/forumdb/internal/scripting"
	"github.com/karhula/forumdb/internal/user"
)

const usage = `Usage: forumdb [-config file] <command> [arguments]

Commands:
  init    [-schema file.sql]   create the schema (built-in migrations or a dump)
  seed    [-seed file.sql]     insert sample data (built-in rows or a dump)
  purge                        delete all messages and users, keep the schema
  remove                       delete the database file
  check                        report foreign-key enforcement status
  script  <file.lua>           run a Lua script against the store
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing config file is fine for a lifecycle tool; fall back
		// to defaults so `forumdb init` works in a fresh checkout.
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = config.Default()
	}

	if command == "remove" {
		if err := db.Remove(cfg.Paths.Database); err != nil {
			log.Fatalf("Failed to remove database: %v", err)
		}
		log.Printf("Removed %s", cfg.Paths.Database)
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Database), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	store, err := db.Open(cfg.Paths.Database, db.Options{
		ForeignKeys: cfg.Store.ForeignKeys,
		BusyTimeout: cfg.BusyTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	switch command {
	case "init":
		runInit(store, flag.Args()[1:])
	case "seed":
		runSeed(store, flag.Args()[1:])
	case "purge":
		if err := store.PurgeAll(); err != nil {
			log.Fatalf("Failed to purge: %v", err)
		}
		log.Printf("All records purged")
	case "check":
		on, err := store.ForeignKeysEnabled()
		if err != nil {
			log.Fatalf("Failed to check foreign keys: %v", err)
		}
		status := "OFF"
		if on {
			status = "ON"
		}
		fmt.Printf("foreign_keys: %s\n", status)
	case "script":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		runScript(store, flag.Arg(1))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runInit(store *db.Store, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "optional .sql schema dump")
	fs.Parse(args)

	if *schemaPath != "" {
		if err := store.CreateSchemaFromFile(*schemaPath); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		log.Printf("Schema created from %s", *schemaPath)
		return
	}
	if err := store.CreateSchema(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Printf("Schema created")
}

func runSeed(store *db.Store, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	seedPath := fs.String("seed", "", "optional .sql data dump")
	fs.Parse(args)

	if *seedPath != "" {
		if err := store.SeedFromFile(*seedPath); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
		log.Printf("Data seeded from %s", *seedPath)
		return
	}
	if err := store.Seed(); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	log.Printf("Sample data seeded")
}

func runScript(store *db.Store, path string) {
	vm := scripting.NewVM()
	defer vm.Close()

	scripting.NewMessageAPI(message.NewRepo(store.DB)).Register(vm.L)
	scripting.NewUserAPI(user.NewRepo(store.DB)).Register(vm.L)

	if err := vm.RunScript(path); err != nil {
		log.Fatalf("Script failed: %v", err)
	}
}
