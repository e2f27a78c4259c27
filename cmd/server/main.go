package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"battleship/pkg/engine"
	"battleship/pkg/messaging"
	"battleship/pkg/model"
	"battleship/pkg/observer"
	"battleship/pkg/store"
)

func main() {
	dbPath := flag.String("db", "", "Path to the match-record database (default: disabled)")
	httpAddr := flag.String("http", "", "Listen address for the spectator endpoints (default: disabled)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 4 {
		log.Fatal("Please pass hostname, port, username and a game name as a command line argument!")
	}
	host, user, prefix := args[0], args[2], args[3]
	port, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Unable to parse port: %v", err)
	}

	var db *store.DB
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("Unable to open database: %v", err)
		}
		defer db.Close()
	}

	broker := messaging.NewPahoBroker(host, port, user, prefix+"-server")
	if err := broker.Connect(); err != nil {
		log.Fatalf("Unable to reach broker at %s:%d: %v", host, port, err)
	}
	bus := messaging.NewAdapter(broker)

	var opts []engine.Option
	if db != nil {
		opts = append(opts, engine.WithStore(db))
	}
	eng := engine.New(bus, model.DefaultSize(), prefix, opts...)
	eng.Start()
	log.Printf("Game %q waiting for players on %s:%d", prefix, host, port)

	var obs *observer.Server
	if *httpAddr != "" {
		obs = observer.New(bus, prefix, eng.Summary, db)
		obs.Start()
		server := &http.Server{Addr: *httpAddr, Handler: obs.Routes()}
		go func() {
			log.Printf("Spectator endpoints on %s", *httpAddr)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("ListenAndServe: %v", err)
			}
		}()
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")
	if obs != nil {
		obs.Stop()
	}
	bus.Stop()
	broker.Close()
}
