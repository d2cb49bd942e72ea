package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brazzo/sandstrike-mp/server/registry"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	ttl := flag.Duration("ttl", 90*time.Second, "Server TTL before expiry")
	flag.Parse()

	reg := registry.NewRegistry(*ttl)
	defer reg.Stop()

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("[master] starting on %s (TTL=%s)", addr, *ttl)
	if err := http.ListenAndServe(addr, reg.Handler()); err != nil {
		log.Fatalf("[master] fatal: %v", err)
	}
}
