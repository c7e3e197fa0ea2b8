package net

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_sketchboard._tcp"

// Relay is a room server found on the LAN.
type Relay struct {
	Name string
	Host string
	Port int
	Room string
}

// WSURL is the relay's WebSocket endpoint.
func (r Relay) WSURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", r.Host, r.Port)
}

// Advertise announces a relay on port over mDNS until the returned server
// is shut down.
func Advertise(port int, roomID string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	info := []string{"SketchBoard"}
	if roomID != "" {
		info = append(info, "room="+roomID)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Printf("[MDNS] Advertising %s on port %d", serviceType, port)
	return server, nil
}

// Browse collects the relays that answer within timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]Relay, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	return collectRelays(ctx, entries, errc)
}

// collectRelays reads entries until the query closes them or ctx ends. On
// cancel the rest of the entries are drained so the query can finish.
func collectRelays(ctx context.Context, entries chan *mdns.ServiceEntry, errc <-chan error) ([]Relay, error) {
	var found []Relay
	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			go func() {
				for range entries {
				}
			}()
			return found, ctx.Err()
		case e, ok := <-entries:
			if !ok {
				if err := <-errc; err != nil {
					return found, fmt.Errorf("mdns query: %w", err)
				}
				return found, nil
			}
			r, ok := relayFromEntry(e)
			if !ok || seen[r.WSURL()] {
				continue
			}
			seen[r.WSURL()] = true
			log.Printf("[MDNS] Found relay %s at %s", r.Name, r.WSURL())
			found = append(found, r)
		}
	}
}

func relayFromEntry(e *mdns.ServiceEntry) (Relay, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Relay{}, false
	}
	r := Relay{Name: e.Name, Host: e.AddrV4.String(), Port: e.Port}
	for _, field := range e.InfoFields {
		if room, ok := strings.CutPrefix(field, "room="); ok {
			r.Room = room
		}
	}
	return r, true
}

// PickRelay prefers a relay hosting room, then any relay.
func PickRelay(relays []Relay, room string) (Relay, bool) {
	for _, r := range relays {
		if r.Room == room {
			return r, true
		}
	}
	if len(relays) > 0 {
		return relays[0], true
	}
	return Relay{}, false
}
