package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"discord-giveaways/internal/common/config"
	"discord-giveaways/internal/common/logger"
	"discord-giveaways/internal/database"
	"discord-giveaways/internal/database/backend"
	"discord-giveaways/internal/features/giveaway/service"
	platformdiscord "discord-giveaways/internal/platform/discord"
	"discord-giveaways/internal/version"
)

func main() {
	// Create cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load")
	}
	logger.Init("discord-giveaways", cfg.Debug)

	adapter, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database open")
	}
	db := database.NewManager(adapter)
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("database close")
		}
	}()

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	client := platformdiscord.NewClient(session)
	manager, err := service.New(client, db, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("giveaway manager")
	}

	platformdiscord.AttachInteractions(session, manager)

	manager.On(service.EventGiveawayEnded, func(e service.Event) {
		logger.Info().
			Str("guild_id", e.Giveaway.GuildID).
			Int("id", e.Giveaway.ID).
			Strs("winners", e.Winners).
			Msg("giveaway ended")
	})
	manager.On(service.EventGiveawayRerolled, func(e service.Event) {
		logger.Info().
			Str("guild_id", e.Giveaway.GuildID).
			Int("id", e.Giveaway.ID).
			Strs("winners", e.Winners).
			Msg("giveaway rerolled")
	})

	if err := session.Open(); err != nil {
		logger.Fatal().Err(err).Msg("discord connect")
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error().Err(err).Msg("discord close")
		}
	}()

	if cfg.UpdateCheck {
		go version.CheckForUpdates(ctx)
	}

	logger.Info().Msg("bot is running")
	if err := manager.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("giveaway manager run")
	}
	logger.Info().Msg("bot stopped")
}
