package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"github.com/hashicorp/mdns"

	"SketchBoard/internal/canvas"
	"SketchBoard/internal/config"
	"SketchBoard/internal/game"
	sbnet "SketchBoard/internal/net"
	"SketchBoard/internal/relay"
	"SketchBoard/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	args := os.Args
	switch {
	case len(args) > 1 && args[1] == "relay":
		runRelay(cfg)
	case len(args) > 1 && strings.HasPrefix(args[1], sbnet.LinkScheme):
		link, err := sbnet.ParseLink(args[1])
		if err != nil {
			log.Fatalf("Bad share link: %v", err)
		}
		cfg.ServerURL, cfg.HTTPURL = link.WSURL(), link.HTTPURL()
		if link.Room != "" {
			cfg.RoomID = link.Room
		}
		runClient(cfg, "")
	default:
		if cfg.ServerURL == "" && cfg.Discovery {
			discover(cfg)
		}
		if cfg.ServerURL != "" {
			runClient(cfg, "")
		} else {
			runHost(cfg)
		}
	}
}

// runRelay serves rooms headless until interrupted.
func runRelay(cfg *config.Config) {
	log.Println("Starting as RELAY")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s := advertise(cfg); s != nil {
		defer s.Shutdown()
	}
	log.Printf("[RELAY] Share link: %s", sbnet.ShareLink(sbnet.LocalIP(), cfg.RelayPort, cfg.RoomID))
	if err := relay.New().ListenAndServe(ctx, relay.Addr(cfg.RelayPort)); err != nil {
		log.Fatalf("[RELAY] %v", err)
	}
}

// runHost starts a relay in this process and joins it, so others on the LAN
// can connect with the share link.
func runHost(cfg *config.Config) {
	log.Println("Starting as HOST")
	ln, err := net.Listen("tcp", relay.Addr(cfg.RelayPort))
	if err != nil {
		log.Fatalf("Failed to start relay: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := relay.New().Serve(ctx, ln); err != nil {
			log.Printf("[RELAY] %v", err)
		}
	}()
	if s := advertise(cfg); s != nil {
		defer s.Shutdown()
	}

	cfg.ServerURL = fmt.Sprintf("ws://127.0.0.1:%d/ws", cfg.RelayPort)
	cfg.HTTPURL = ""
	shareLink := sbnet.ShareLink(sbnet.LocalIP(), cfg.RelayPort, cfg.RoomID)
	log.Printf("[RELAY] Share link: %s", shareLink)
	runClient(cfg, shareLink)
}

func advertise(cfg *config.Config) *mdns.Server {
	if !cfg.Discovery {
		return nil
	}
	s, err := sbnet.Advertise(cfg.RelayPort, cfg.RoomID)
	if err != nil {
		log.Printf("[MDNS] Not advertising: %v", err)
		return nil
	}
	return s
}

func discover(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DiscoveryTimeout+time.Second)
	defer cancel()
	relays, err := sbnet.Browse(ctx, cfg.DiscoveryTimeout)
	if err != nil {
		log.Printf("[MDNS] Discovery failed: %v", err)
	}
	if r, ok := sbnet.PickRelay(relays, cfg.RoomID); ok {
		cfg.ServerURL, cfg.HTTPURL = r.WSURL(), ""
	}
}

func runClient(cfg *config.Config, shareLink string) {
	engine, err := canvas.NewEngine(1024, 700)
	if err != nil {
		log.Fatalf("Failed to create canvas: %v", err)
	}
	g := game.New(engine, nil, cfg.RoomID)
	g.SetStyle(cfg.Style)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui.RunApp(g, ui.Options{
		Title:     "SketchBoard - " + cfg.RoomID,
		ShareLink: shareLink,
		Ready: func(board *ui.BoardWidget) {
			go connect(ctx, cfg, g, board)
		},
	})
}

// connect joins the room, then replays its history. Either failing leaves
// a usable local board.
func connect(ctx context.Context, cfg *config.Config, g *game.Game, board *ui.BoardWidget) {
	board.SetConnection("connecting")
	client, err := sbnet.Dial(ctx, sbnet.Options{
		Server:    cfg.ServerURL,
		RoomID:    cfg.RoomID,
		Token:     cfg.Token,
		OnPayload: board.Apply,
		OnClose: func(err error) {
			g.SetSender(nil)
			board.ConnectionLost(err)
		},
	})
	if err != nil {
		log.Printf("[NET] Connection to %s failed: %v", cfg.ServerURL, err)
		board.ConnectionLost(err)
		return
	}
	g.SetSender(client)
	board.SetConnection("connected")
	log.Printf("[NET] Joined %s on %s", cfg.RoomID, cfg.ServerURL)

	history := sbnet.NewHistoryClient(cfg.HistoryBase(), cfg.Token)
	if _, err := g.LoadHistory(ctx, history); err != nil {
		board.SetConnection("connected, history unavailable")
	}
	fyne.Do(board.Sync)
}
