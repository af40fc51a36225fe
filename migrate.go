package main

import (
	"log"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func migrateDatabase() error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://migrations", "sqlite3://"+conf.DatabasePath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Print("info: database is already up to date")
			return nil
		}

		return err
	}

	log.Print("info: database migrated")
	return nil
}
