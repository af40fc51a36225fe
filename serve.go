package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/back"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/bot"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/config"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/web"

	"github.com/joho/godotenv"
)

func serve() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("info: no .env file loaded: %s", err)
	}

	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	b, err := back.New("sqlite3", conf.DatabasePath)
	if err != nil {
		return err
	}
	defer b.Close()

	dbot, err := bot.New(b, conf)
	if err != nil {
		return err
	}

	server := web.NewServer(b, conf.WebAddr)

	done := make(chan struct{})
	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	go b.Run(&wg, done)
	go dbot.Serve(&wg, done)
	go server.Serve(&wg, done)

	sig := <-signaled
	log.Printf("info: received signal %d", sig)

	close(done)
	wg.Wait()
	log.Print("info: shutdown complete")

	return nil
}
