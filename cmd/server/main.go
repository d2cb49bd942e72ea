package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brazzo/sandstrike-mp/server/gateway"
	"github.com/brazzo/sandstrike-mp/server/registry"
	"github.com/brazzo/sandstrike-mp/server/room"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

func main() {
	port := flag.Uint("port", 7373, "Server port")
	name := flag.String("name", "Sandstrike Server", "Server display name")
	region := flag.String("region", "", "Region label for the master list")
	masterURL := flag.String("master", "", "Master server URL (empty = skip registration)")
	address := flag.String("address", "", "Public address to advertise to the master")
	flag.Parse()

	mgr := room.NewManager(room.DefaultConfig())
	gw := gateway.New(mgr)

	var reg *registry.Registration
	if *masterURL != "" {
		if *address == "" {
			log.Fatalf("-master requires -address (public host:port to advertise)")
		}
		reg = registry.NewRegistration(
			*masterURL, *name, *address, protocol.Version, *region,
			protocol.MaxRoomPlayers,
			func() (players, rooms int) {
				return mgr.TotalPlayers(), len(mgr.ListRooms())
			},
		)
		reg.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		if reg != nil {
			reg.Stop()
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting server %q on %s (protocol %s)", *name, addr, protocol.Version)
	if err := http.ListenAndServe(addr, gw.Handler()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
