package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"citydesk/internal/appinfo"
	"citydesk/internal/cityapi"
	"citydesk/internal/config"
	"citydesk/internal/econ"
	"citydesk/internal/schedule"
	"citydesk/internal/stream"
	"citydesk/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		if err := runPanel(nil); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "watch":
		if err := runWatch(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(appinfo.Display())
	default:
		if err := runPanel(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	configPath := fs.String("config", "", "path to citydesk.yaml")
	apiURL := fs.String("api", "", "backend base url (overrides config)")
	wsURL := fs.String("ws", "", "push channel websocket url (overrides config)")
	redisURL := fs.String("redis", "", "redis url for the pub/sub event source (overrides config)")
	city := fs.String("city", "", "city name (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(*apiURL); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(*wsURL); v != "" {
		cfg.WSURL = v
	}
	if v := strings.TrimSpace(*redisURL); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(*city); v != "" {
		cfg.City = v
	}
	return cfg, nil
}

func runPanel(args []string) error {
	fs := flag.NewFlagSet("citydesk", flag.ExitOnError)
	reportPath := fs.String("report", "citydesk-history.html", "path for the exported history report")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	api, err := cityapi.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 64)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	notices := econ.NewNotices(0, notify)
	history := econ.NewHistoryLog(0, notify)
	overview := econ.NewOverviewCache(cfg.City, api.FetchCityOverview, notify)
	panel := econ.NewPanel(api, notify)

	refresh := func() {
		go func() { _ = overview.Refresh(ctx) }()
	}
	coord := econ.NewCoordinator(notices, refresh)
	consumer := econ.NewConsumer(history, refresh)

	// The TUI owns the terminal, so the stream stays quiet.
	if err := startEventSource(ctx, cfg, consumer.HandleMessage, nil); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.RefreshSpec) != "" {
		refresher, err := schedule.New(cfg.RefreshSpec, func() { _ = overview.Refresh(ctx) }, nil)
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop()
	}

	return tui.Run(ctx, tui.Options{
		API:         api,
		Overview:    overview,
		History:     history,
		Notices:     notices,
		Panel:       panel,
		Coordinator: coord,
		Changes:     changes,
		City:        cfg.City,
		ReportPath:  *reportPath,
	})
}

func startEventSource(ctx context.Context, cfg config.Config, handler stream.Handler, logf func(string, ...any)) error {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		source, err := stream.NewRedisSource(cfg.RedisURL, cfg.RedisChannel, handler, logf)
		if err != nil {
			return err
		}
		go func() {
			defer source.Close()
			_ = source.Run(ctx)
		}()
		return nil
	}

	client, err := stream.NewWSClient(stream.WSClientOptions{
		URL:     cfg.WSURL,
		Handler: handler,
		Logf:    logf,
	})
	if err != nil {
		return err
	}
	go func() { _ = client.Run(ctx) }()
	return nil
}

// runWatch tails the push channel headlessly, printing one line per decoded
// economy event.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	handler := func(msg stream.Message) {
		event, ok := msg.SystemEvent()
		if !ok {
			return
		}
		switch event {
		case stream.EventResourceTransferred:
			var p stream.TransferPayload
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				return
			}
			logger.Printf("transfer %s → %s: %d %s at %s",
				nameOrID(p.FromAgentName, p.FromAgentID),
				nameOrID(p.ToAgentName, p.ToAgentID),
				p.Quantity, p.ResourceType, econ.LocalClock(p.Timestamp))
		case stream.EventCheckin:
			var p stream.CheckinPayload
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				return
			}
			logger.Printf("checkin %s job=%q reward=%d at %s",
				nameOrID(p.AgentName, p.AgentID), p.JobTitle, p.Reward, econ.LocalClock(p.Timestamp))
		case stream.EventPurchase:
			var p stream.PurchasePayload
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				return
			}
			logger.Printf("purchase %s item=%q price=%d at %s",
				nameOrID(p.AgentName, p.AgentID), p.ItemName, p.Price, econ.LocalClock(p.Timestamp))
		default:
			logger.Printf("event %s", event)
		}
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		source, err := stream.NewRedisSource(cfg.RedisURL, cfg.RedisChannel, handler, logger.Printf)
		if err != nil {
			return err
		}
		defer source.Close()
		return source.Run(ctx)
	}

	client, err := stream.NewWSClient(stream.WSClientOptions{
		URL:     cfg.WSURL,
		Handler: handler,
		Logf:    logger.Printf,
	})
	if err != nil {
		return err
	}
	return client.Run(ctx)
}

func nameOrID(name string, id int) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fmt.Sprintf("Agent#%d", id)
}
