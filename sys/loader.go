package sys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
)

// SafeGo runs a function in a new goroutine with panic recovery
func SafeGo(f func()) {
	go func() {
		defer recoverHandler()
		f()
	}()
}

func recoverHandler() {
	if r := recover(); r != nil {
		LogError(MsgLoaderPanicRecovered, r)
		LogDebug("%s", debug.Stack())
	}
}

// --- Global State & Setup ---

var AppContext = context.Background()
var StartupTime = time.Now()
var daemonsOnce sync.Once

var commands = []discord.ApplicationCommandCreate{}
var commandHandlers = map[string]func(event *events.ApplicationCommandInteractionCreate){}
var componentHandlers = map[string]func(event *events.ComponentInteractionCreate){}
var messageCreateHandlers []func(event *events.MessageCreate)
var messageUpdateHandlers []func(event *events.MessageUpdate)
var reactionAddHandlers []func(event *events.MessageReactionAdd)
var onClientReadyCallbacks []func(ctx context.Context, client *bot.Client)

// sendLimiter paces outbound messages that are not interaction responses.
var sendLimiter = rate.NewLimiter(rate.Limit(4), 10)

func SetAppContext(ctx context.Context) {
	AppContext = ctx
}

// WaitSend blocks until the shared outbound limiter admits one more send.
func WaitSend(ctx context.Context) error {
	return sendLimiter.Wait(ctx)
}

// Settings is the persistent key/value store used for command sync state.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// --- Bot Initialization ---

// CreateClient creates and configures a disgo client
func CreateClient(cfg *Config) (*bot.Client, error) {
	return disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
				gateway.IntentGuildMessageReactions,
			),
			gateway.WithPresenceOpts(
				gateway.WithWatchingActivity("LUVI drops"),
				gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagRoles, cache.FlagChannels),
		),
		bot.WithEventListenerFunc(onApplicationCommandInteraction),
		bot.WithEventListenerFunc(onComponentInteraction),
		bot.WithEventListenerFunc(onMessageCreate),
		bot.WithEventListenerFunc(onMessageUpdate),
		bot.WithEventListenerFunc(onMessageReactionAdd),
		bot.WithEventListenerFunc(onReady),
		bot.WithLogger(slog.Default()),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 60 * time.Second,
				Transport: &http.Transport{
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 50,
					IdleConnTimeout:     90 * time.Second,
				},
			}),
		),
	)
}

// --- Command & Handler Registration ---

func RegisterCommand(cmd discord.ApplicationCommandCreate, handler func(event *events.ApplicationCommandInteractionCreate)) {
	commands = append(commands, cmd)
	switch c := cmd.(type) {
	case discord.SlashCommandCreate:
		commandHandlers[c.CommandName()] = handler
	case discord.UserCommandCreate:
		commandHandlers[c.CommandName()] = handler
	case discord.MessageCommandCreate:
		commandHandlers[c.CommandName()] = handler
	}
}

// RegisterComponentHandler routes a custom ID to handler. IDs ending in ":"
// match every custom ID that starts with them.
func RegisterComponentHandler(customID string, handler func(event *events.ComponentInteractionCreate)) {
	componentHandlers[customID] = handler
}

func RegisterMessageCreateHandler(handler func(event *events.MessageCreate)) {
	messageCreateHandlers = append(messageCreateHandlers, handler)
}

func RegisterMessageUpdateHandler(handler func(event *events.MessageUpdate)) {
	messageUpdateHandlers = append(messageUpdateHandlers, handler)
}

func RegisterReactionAddHandler(handler func(event *events.MessageReactionAdd)) {
	reactionAddHandlers = append(reactionAddHandlers, handler)
}

func OnClientReady(cb func(ctx context.Context, client *bot.Client)) {
	onClientReadyCallbacks = append(onClientReadyCallbacks, cb)
}

// componentHandlerFor picks the exact handler, else the longest registered
// prefix.
func componentHandlerFor(customID string) (func(event *events.ComponentInteractionCreate), bool) {
	if h, ok := componentHandlers[customID]; ok {
		return h, true
	}
	var best string
	for prefix := range componentHandlers {
		if strings.HasSuffix(prefix, ":") && strings.HasPrefix(customID, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	return componentHandlers[best], true
}

// --- Command Syncing Logic ---

// calculateCommandHash generates a SHA256 hash of the commands slice
func calculateCommandHash(cmds []discord.ApplicationCommandCreate) string {
	data, err := json.Marshal(cmds)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func RegisterCommands(ctx context.Context, client *bot.Client, settings Settings, guildIDStr string, forceScan bool) error {
	lastGuildID, _ := settings.GetSetting(ctx, "last_guild_id")
	lastHash, _ := settings.GetSetting(ctx, "last_cmd_hash")
	lastMode, _ := settings.GetSetting(ctx, "last_reg_mode")

	isProduction := guildIDStr == ""
	currentMode := "guild"
	if isProduction {
		currentMode = "global"
	}

	LogLoader(MsgLoaderSyncCommands, strings.ToUpper(currentMode))

	currentHash := calculateCommandHash(commands)
	shouldRegister := true
	if currentHash != "" && currentHash == lastHash && currentMode == lastMode && !forceScan {
		shouldRegister = false
		LogLoader(MsgLoaderUpToDate, currentHash[:8])
	}

	if isProduction {
		if shouldRegister {
			LogLoader(MsgLoaderProdStarting)
			created, err := client.Rest.SetGlobalCommands(client.ApplicationID, commands)
			if err != nil {
				return fmt.Errorf(MsgLoaderProdFail, err)
			}
			for _, cmd := range created {
				LogLoader(MsgLoaderProdRegistered, cmd.Name())
			}
		}

		if forceScan || lastMode != currentMode {
			scanGhostCommands(client, 0)
		}

		if lastGuildID != "" {
			clearGuildCommands(client, lastGuildID)
		}
	} else {
		guildID, err := snowflake.Parse(guildIDStr)
		if err != nil {
			return fmt.Errorf("invalid GUILD_ID: %w", err)
		}

		if shouldRegister {
			LogLoader(MsgLoaderDevStarting, guildIDStr)
			created, err := client.Rest.SetGuildCommands(client.ApplicationID, guildID, commands)
			if err != nil {
				LogWarn(MsgLoaderDevFail, err)
			} else {
				for _, cmd := range created {
					LogLoader(MsgLoaderDevRegistered, cmd.Name())
				}
			}
		}

		if lastMode != currentMode || forceScan {
			if cmds, err := client.Rest.GetGlobalCommands(client.ApplicationID, false); err == nil && len(cmds) > 0 {
				LogLoader(MsgLoaderDevGlobalClear)
				if _, err := client.Rest.SetGlobalCommands(client.ApplicationID, []discord.ApplicationCommandCreate{}); err != nil {
					LogWarn(MsgLoaderDevGlobalClearFail, err)
				}
			}
		}

		if lastGuildID != "" && lastGuildID != guildIDStr {
			clearGuildCommands(client, lastGuildID)
		}

		if forceScan {
			scanGhostCommands(client, guildID)
		}
	}

	_ = settings.SetSetting(ctx, "last_reg_mode", currentMode)
	_ = settings.SetSetting(ctx, "last_guild_id", guildIDStr)
	if currentHash != "" {
		_ = settings.SetSetting(ctx, "last_cmd_hash", currentHash)
	}
	return nil
}

func clearGuildCommands(client *bot.Client, guildIDStr string) {
	id, err := snowflake.Parse(guildIDStr)
	if err != nil {
		return
	}
	if cmds, err := client.Rest.GetGuildCommands(client.ApplicationID, id, false); err == nil && len(cmds) > 0 {
		LogLoader(MsgLoaderCleanup, guildIDStr)
		_, _ = client.Rest.SetGuildCommands(client.ApplicationID, id, []discord.ApplicationCommandCreate{})
	}
}

// scanGhostCommands clears guild-scoped commands everywhere except keep.
func scanGhostCommands(client *bot.Client, keep snowflake.ID) {
	LogLoader(MsgLoaderScanStarting)
	guilds, err := client.Rest.GetCurrentUserGuilds("", 0, 0, 100, false)
	if err != nil {
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 5)
	for _, g := range guilds {
		if g.ID == keep {
			continue
		}
		wg.Add(1)
		go func(guild discord.OAuth2Guild) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if cmds, err := client.Rest.GetGuildCommands(client.ApplicationID, guild.ID, false); err == nil && len(cmds) > 0 {
				LogLoader(MsgLoaderScanCleared, guild.Name, guild.ID.String())
				_, _ = client.Rest.SetGuildCommands(client.ApplicationID, guild.ID, []discord.ApplicationCommandCreate{})
			}
		}(g)
	}
	wg.Wait()
}

// --- Event Handlers ---

func onReady(event *events.Ready) {
	client := event.Client()
	botUser := event.User

	duration := time.Since(StartupTime)
	LogInfo(MsgBotReady, botUser.Username, botUser.ID.String(), os.Getpid(), duration.Milliseconds())

	TriggerClientReady(AppContext, client)
	StartDaemons(AppContext)
}

func TriggerClientReady(ctx context.Context, client *bot.Client) {
	for _, cb := range onClientReadyCallbacks {
		cb(ctx, client)
	}
}

func onApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	if h, ok := commandHandlers[event.Data.CommandName()]; ok {
		SafeGo(func() { h(event) })
	}
}

func onComponentInteraction(event *events.ComponentInteractionCreate) {
	if h, ok := componentHandlerFor(event.Data.CustomID()); ok {
		SafeGo(func() { h(event) })
	}
}

func onMessageCreate(event *events.MessageCreate) {
	for _, h := range messageCreateHandlers {
		SafeGo(func() { h(event) })
	}
}

func onMessageUpdate(event *events.MessageUpdate) {
	for _, h := range messageUpdateHandlers {
		SafeGo(func() { h(event) })
	}
}

func onMessageReactionAdd(event *events.MessageReactionAdd) {
	for _, h := range reactionAddHandlers {
		SafeGo(func() { h(event) })
	}
}

// --- Daemon System ---

type daemonEntry struct {
	starter func(ctx context.Context) (bool, func(), func())
	logger  func(format string, v ...any)
}

var registeredDaemons []daemonEntry
var activeShutdownHooks []func()
var activeShutdownMu sync.Mutex

// RegisterDaemon registers a background daemon with a logger and start function
func RegisterDaemon(logger func(format string, v ...any), starter func(ctx context.Context) (bool, func(), func())) {
	registeredDaemons = append(registeredDaemons, daemonEntry{starter: starter, logger: logger})
}

// StartDaemons starts all registered daemons once.
func StartDaemons(ctx context.Context) {
	daemonsOnce.Do(func() {
		type activeDaemon struct {
			entry daemonEntry
			run   func()
		}
		var active []activeDaemon

		for _, daemon := range registeredDaemons {
			if ok, run, shutdown := daemon.starter(ctx); ok && run != nil {
				if shutdown != nil {
					activeShutdownMu.Lock()
					activeShutdownHooks = append(activeShutdownHooks, shutdown)
					activeShutdownMu.Unlock()
				}
				active = append(active, activeDaemon{daemon, run})
			}
		}

		for _, ad := range active {
			ad.entry.logger(MsgDaemonStarting)
		}

		for _, ad := range active {
			SafeGo(ad.run)
		}
	})
}

// ShutdownDaemons runs every shutdown hook and waits for them.
func ShutdownDaemons() {
	activeShutdownMu.Lock()
	defer activeShutdownMu.Unlock()

	var wg sync.WaitGroup
	for _, shutdown := range activeShutdownHooks {
		wg.Add(1)
		go func(s func()) {
			defer wg.Done()
			s()
		}(shutdown)
	}
	wg.Wait()
}
