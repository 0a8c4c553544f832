package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leeineian/luvibot/catalog"
	"github.com/leeineian/luvibot/home"
	"github.com/leeineian/luvibot/proc"
	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

func main() {
	// LogFatal panics so deferred cleanup still runs.
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok {
				fmt.Fprintf(os.Stderr, "\n[FATAL] %s\n", msg)
				os.Exit(1)
			}
			panic(r)
		}
	}()

	silent := flag.Bool("silent", false, "Disable all log output")
	skipReg := flag.Bool("skip-reg", false, "Skip command registration")
	clearAll := flag.Bool("clear-all", false, "Force clear guild commands (scan all guilds)")
	flag.Parse()

	cfg, err := sys.LoadConfig()
	if err != nil {
		sys.InitLogger(*silent, false)
		sys.LogFatal(sys.MsgConfigFailedToLoad, err)
	}

	sys.InitLogger(*silent || cfg.Silent, true)
	sys.LogInfo(sys.MsgBotStarting, sys.GetProjectName())

	release, err := acquirePIDLock(".bot.pid")
	if err != nil {
		sys.LogFatal("Failed to lock PID file: %v", err)
	}
	defer release()

	if err := run(cfg, *silent, *skipReg, *clearAll); err != nil {
		sys.LogFatal(sys.MsgGenericError, err)
	}
}

func run(cfg *sys.Config, silent, skipReg, clearAll bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	sys.SetAppContext(ctx)

	st, err := store.Open(ctx, store.Config{
		Driver: cfg.StoreDriver,
		Path:   cfg.DatabasePath,
		URL:    cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.Close()

	// Search degrades to a notice when the card list is missing.
	cards, err := catalog.LoadFile(cfg.CardsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(sys.MsgCatalogLoadFail, cfg.CardsPath, err)
		}
		sys.LogWarn(sys.MsgCatalogLoadFail, cfg.CardsPath, err)
	} else {
		sys.LogSearch(sys.MsgCatalogLoaded, cards.Len(), cfg.CardsPath)
	}

	app := home.NewApp(cfg, st, cards)
	app.Register()
	proc.Register(st, app.SweepTargets()...)
	proc.RegisterStatus(app.StatusSources()...)

	client, err := sys.CreateClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create Discord client: %w", err)
	}
	defer client.Close(context.Background())

	if !skipReg {
		if err := sys.RegisterCommands(ctx, client, st, cfg.GuildID, clearAll); err != nil {
			sys.LogError(sys.MsgBotRegisterFail, err)
		}
	} else {
		sys.LogInfo("Skipping command registration as requested.")
	}

	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	<-ctx.Done()
	if !silent {
		fmt.Println()
	}

	sys.LogInfo("Shutting down all daemons...")
	sys.ShutdownDaemons()

	if botUser, ok := client.Caches.SelfUser(); ok {
		sys.LogInfo(sys.MsgBotShutdown, botUser.Username)
	} else {
		sys.LogInfo(sys.MsgBotShutdown, sys.GetProjectName())
	}
	return nil
}
