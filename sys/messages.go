package sys

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad    = "Failed to load config: %v"
	MsgConfigMissingToken    = "DISCORD_TOKEN is not set in .env file"
	MsgConfigFileFailed      = "Failed to read config file %s: %v"
	MsgDatabaseInitSuccess   = "Database initialized successfully"
	MsgDatabaseSchemaVersion = "Schema %s at version %d (dirty: %v)"
	MsgDaemonStarting        = "Starting..."
	MsgBotStarting           = "Starting %s..."
	MsgBotReady              = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown           = "Shutting down %s..."
	MsgBotKillingOld         = "Killing running instance... (PID: %d)"
	MsgBotOldTerminated      = "Old instance terminated."
	MsgBotRegisterFail       = "Command registration failed: %v"
	MsgCatalogLoaded         = "Loaded %d cards from %s"
	MsgCatalogLoadFail       = "Failed to load card catalog from %s: %v"
	MsgGenericError          = "%v"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands       = "Syncing %s commands..."
	MsgLoaderUpToDate           = "Commands are up to date. (Hash: %s)"
	MsgLoaderCleanup            = "[CLEANUP] Removing commands from previous dev guild: %s"
	MsgLoaderDevStarting        = "[DEV] Registering commands to guild: %s"
	MsgLoaderDevRegistered      = "[DEV] Registered: %s"
	MsgLoaderDevFail            = "[DEV] Registration failed: %v"
	MsgLoaderDevGlobalClear     = "[DEV] Verifying global commands are cleared..."
	MsgLoaderDevGlobalClearFail = "[DEV] Global clear skipped (likely rate limited): %v"
	MsgLoaderProdStarting       = "[PROD] Registering commands globally..."
	MsgLoaderProdRegistered     = "[PROD] Registered: %s"
	MsgLoaderProdFail           = "[PROD] Global registration failed: %w"
	MsgLoaderScanStarting       = "[SCAN] Checking all guilds for ghost commands..."
	MsgLoaderScanCleared        = "[SCAN] Cleared ghost commands from: %s (%s)"
	MsgLoaderPanicRecovered     = "Panic recovered in handler: %v"

	// --- Drop Tracking ---
	MsgDropCounted          = "Drop #%d for user %s in guild %s"
	MsgDropRarityCounted    = "%s drop for user %s in guild %s (L:%d E:%d)"
	MsgDropCountFail        = "Failed to increment drop count for user %s in guild %s: %v"
	MsgDropRarityFail       = "Failed to increment %s count for user %s in guild %s: %v"
	MsgDropStale            = "Ignoring stale drop message %s (age %s)"
	MsgDropReminderSet      = "Drop reminder set for user %s at %s"
	MsgDropReminderSkipped  = "Drop reminder for user %s already pending, skipped"
	MsgDropReminderFail     = "Failed to schedule drop reminder for user %s in guild %s: %v"
	MsgDropReminderTemplate = "<@%s>, You can now use %s again!"

	// --- Reminder Delivery ---
	MsgReminderFailedToQueryDue = "Failed to query due reminders: %v"
	MsgReminderFailedToSend     = "Failed to send reminder %d: %v"
	MsgReminderSent             = "Sent %s reminder %d for user %s"
	MsgReminderShutdown         = "Shutting down reminder delivery..."

	// --- Sessions & Presence ---
	MsgSessionSwept     = "Evicted %d idle sessions"
	MsgSessionShutdown  = "Shutting down session sweeper..."
	MsgStatusRotated    = "Status set to %q (next in %s)"
	MsgStatusUpdateFail = "Failed to update presence: %v"

	// --- Inventory & ID Fetch ---
	MsgInventoryNotOwner   = "Ignoring inventory reaction from %s on %s's inventory"
	MsgInventoryReplyFail  = "Failed to send rarity message: %v"
	MsgInventoryEditFail   = "Failed to update rarity message %s: %v"
	MsgInventoryWatching   = "Watching inventory %s for page changes"
	MsgIDFetchFail         = "Failed to fetch message %s: %v"
	MsgIDFetchClearFail    = "Failed to clear reactions on %s: %v"
	MsgIDFetchSendFail     = "Failed to send ID list: %v"
	MsgIDFetchNone         = "No IDs found in message %s"
	MsgIDFetchOfferFail    = "Failed to add ID fetch reaction to %s: %v"
	MsgInteractionRespFail = "Failed to respond to interaction: %v"

	// --- Search ---
	MsgSearchQuery      = "Search by %s for %q: %d results"
	MsgSearchSendFail   = "Failed to send search results: %v"
	MsgSearchTitle      = "Found %d results"
	MsgSearchSubtitle   = "Page %d/%d - Reply with the number to select:"
	MsgSearchIconicHint = "✨ = Iconic"
	MsgSearchMultiTitle = "📋 Search Results (%d queries)"
	MsgSearchMultiMiss  = "No card found"
	MsgSearchNoResults  = "❌ No Results"
	MsgSearchNoMatch    = "No cards found matching your search."
	MsgSearchInvalid    = "❌ Invalid Selection"
	MsgSearchInvalidSub = "Please choose a valid number."
	MsgSearchExpired    = "This search has expired. Search again to get a fresh list."
	MsgSearchNotYours   = "Only the person who searched can use these buttons."
	MsgSearchCatalogOff = "The card catalog is not loaded."
	MsgSearchBtnPrev    = "← Previous"
	MsgSearchBtnNext    = "Next →"

	// --- Leaderboard ---
	MsgLeaderboardDropsTitle  = "🎴 Drop Leaderboard"
	MsgLeaderboardRarityTitle = "💎 Rarity Drop Leaderboard"
	MsgLeaderboardNoDrops     = "📊 No drops tracked yet in this server."
	MsgLeaderboardNoRarity    = "📊 No Exotic/Legendary drops tracked yet in this server."
	MsgLeaderboardPageFooter  = "Page %d/%d"
	MsgLeaderboardResetAsk    = "⚠️ Reset all drop counts for this server? This cannot be undone."
	MsgLeaderboardResetDone   = "🧹 Leaderboard reset by <@%s>."
	MsgLeaderboardReset       = "Leaderboard for guild %s reset by %s"
	MsgLeaderboardResetFail   = "Failed to reset leaderboard for guild %s: %v"
	MsgLeaderboardLoadFail    = "Failed to load leaderboard for guild %s: %v"
	MsgLeaderboardBtnRarity   = "View Rarity Drops"
	MsgLeaderboardBtnBack     = "Back to All Drops"
	MsgLeaderboardBtnReset    = "Reset"
	MsgLeaderboardBtnConfirm  = "Confirm Reset"
	MsgLeaderboardBtnCancel   = "Cancel"
	MsgLeaderboardBtnPrev     = "◀"
	MsgLeaderboardBtnNext     = "▶"

	// --- Multi-role settings ---
	MsgMultiRoleEnabled     = "✅ Multi-role system enabled! Use `/multi-roles set-boss` to assign a role to each boss tier."
	MsgMultiRoleDisabled    = "✅ Multi-role system disabled! Boss pings will use the single boss role."
	MsgMultiRoleTierSet     = "✅ %s boss role set to <@&%s>."
	MsgMultiRoleTierRemoved = "✅ %s boss role removed."
	MsgMultiRoleSaveFail    = "Failed to save guild settings for %s: %v"
	ErrMultiRoleNotEnabled  = "❌ Multi-role system is not enabled! Use `/multi-roles enable` first."

	// --- Shared user-facing errors ---
	ErrNoPermission = "❌ You do not have permission to use this command."
	ErrGuildOnly    = "This command can only be used in a server."
	ErrGeneric      = "❌ Something went wrong. Please try again."
)
