package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"shiritori/internal/audit"
	"shiritori/internal/bot"
	"shiritori/internal/command"
	"shiritori/internal/config"
	"shiritori/internal/engine"
	"shiritori/internal/gateway"
	"shiritori/internal/util"
	"shiritori/pkg/store"
)

const usage = `Usage:
  shiritori [-config path] run
  shiritori [-config path] load [-banned] <path-to-words-file>
  shiritori [-config path] wipe
`

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	switch args[0] {
	case "run":
		err = runBot(cfg)
	case "load":
		fs := flag.NewFlagSet("load", flag.ExitOnError)
		banned := fs.Bool("banned", false, "load into the banned-word set")
		fs.Parse(args[1:])
		if fs.NArg() != 1 {
			flag.Usage()
			os.Exit(2)
		}
		err = loadWords(cfg, fs.Arg(0), *banned)
	case "wipe":
		err = wipe(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", args[0], "err", err)
		os.Exit(1)
	}
}

func runBot(cfg config.FileConfig) error {
	if cfg.DiscordToken == "" {
		return fmt.Errorf("discordToken is required (set in config.yaml or DISCORD_TOKEN)")
	}
	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	var wordCache engine.WordCache
	var channelCache engine.ChannelCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		wordCache = engine.NewRedisWordCache(client, cfg.CachePrefix)
		channelCache = engine.NewRedisChannelCache(client, cfg.CachePrefix)
	}

	var auditSink engine.Audit
	if cfg.AMQPURL != "" {
		publisher, err := audit.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
		if err != nil {
			return fmt.Errorf("init audit publisher: %w", err)
		}
		defer publisher.Close()
		auditSink = publisher
	}

	gw, err := gateway.New(cfg.DiscordToken, nil)
	if err != nil {
		return err
	}
	eng := engine.New(engine.Config{
		Store:        st,
		Notifier:     gw,
		History:      gw,
		Audit:        auditSink,
		WordCache:    wordCache,
		ChannelCache: channelCache,
		BatchSize:    cfg.WordBatchSize,
	})
	dispatcher := command.NewDispatcher(eng, gw, nil)
	loop := bot.New(eng, dispatcher, nil, cfg.EventBuffer)
	gw.SetSink(loop.Enqueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return gw.Run(ctx) })
	group.Go(func() error { return loop.Run(ctx) })
	return group.Wait()
}

func loadWords(cfg config.FileConfig, path string, banned bool) error {
	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	directory := engine.NewDirectory(st, nil, cfg.WordBatchSize)
	ctx := context.Background()
	var inserted int
	if banned {
		inserted, err = directory.LoadBanned(ctx, f)
	} else {
		inserted, err = directory.LoadList(ctx, f)
	}
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d new word(s) from %s\n", inserted, path)
	return nil
}

func wipe(cfg config.FileConfig) error {
	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	return st.Wipe()
}
