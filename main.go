package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	switch flag.Arg(0) { // nolint, TODO
	case "serve":
		if err := serve(); err != nil {
			log.Fatal(err)
		}
	case "migrate":
		if err := migrateDatabase(); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Fprintf(os.Stdout, "Ladder %s\n", Version)
	case "dev:fixtures":
		if err := loadFixtures(); err != nil {
			log.Fatal(err)
		}
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}
}

func help() string {
	return fmt.Sprintf(`
Ladder is a tool to manage a competitive 5D Chess ladder over Discord.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    dev:fixtures create default data for quick testing during development
    help         display this help
    migrate      apply pending database migrations
    serve        start the Discord bot and the HTTP API
    version      display the current version
`,
		os.Args[0],
	)
}
