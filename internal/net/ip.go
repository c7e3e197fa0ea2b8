package net

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// LinkScheme prefixes share links handed to other participants.
const LinkScheme = "sketchboard://"

// LocalIP finds the address other machines on the LAN should use to reach
// this one.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// offline: fall back to the interfaces
		return localIPFallback()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func localIPFallback() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("[NET] Listing interfaces: %v", err)
		return "127.0.0.1"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	log.Println("[NET] No suitable local IP found, share links will use loopback")
	return "127.0.0.1"
}

// Link is a parsed share link: sketchboard://host:port/room.
type Link struct {
	Host string
	Port int
	Room string
}

func ShareLink(host string, port int, room string) string {
	return fmt.Sprintf("%s%s/%s", LinkScheme, net.JoinHostPort(host, strconv.Itoa(port)), url.PathEscape(room))
}

func ParseLink(link string) (Link, error) {
	rest, ok := strings.CutPrefix(link, LinkScheme)
	if !ok {
		return Link{}, fmt.Errorf("not a %s link: %q", LinkScheme, link)
	}
	addr, room, _ := strings.Cut(strings.TrimSuffix(rest, "/"), "/")
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Link{}, fmt.Errorf("share link address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Link{}, fmt.Errorf("share link port %q", portStr)
	}
	if room, err = url.PathUnescape(room); err != nil {
		return Link{}, fmt.Errorf("share link room: %w", err)
	}
	return Link{Host: host, Port: port, Room: room}, nil
}

// WSURL is the relay endpoint the link points at.
func (l Link) WSURL() string {
	return fmt.Sprintf("ws://%s/ws", net.JoinHostPort(l.Host, strconv.Itoa(l.Port)))
}

// HTTPURL is the base for the link's history API.
func (l Link) HTTPURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(l.Host, strconv.Itoa(l.Port)))
}
