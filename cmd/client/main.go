package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"battleship/pkg/client"
	"battleship/pkg/messaging"
)

func main() {
	host := flag.String("host", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	user := flag.String("user", "battleship", "MQTT username")
	flag.Parse()

	broker := messaging.NewPahoBroker(*host, *port, *user, fmt.Sprintf("battleship-%d", os.Getpid()))
	if err := broker.Connect(); err != nil {
		log.Fatalf("Unable to reach broker at %s:%d: %v", *host, *port, err)
	}
	bus := messaging.NewAdapter(broker)
	defer func() {
		bus.Stop()
		broker.Close()
	}()

	d := client.New(bus, os.Stdin, os.Stdout)
	if err := d.Run(); err != nil {
		log.Fatalf("client: %v", err)
	}
}
