package main

import (
	"context"
	"flag"

	"go-catalog-ws/config"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/database"
	"go-catalog-ws/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// reset-password sets a new password for a user and ends their sessions.
func main() {
	cfg := config.CreateNewConfig()
	logger.Setup(cfg.Environment, cfg.LogLevel)

	username := flag.String("username", cfg.AdminConfig.Username, "user to reset")
	password := flag.String("password", cfg.AdminConfig.Password, "new password (min 6 characters)")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal().Msg("password must be at least 6 characters")
	}

	db, err := database.ConnectDB(cfg.DatabaseConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepo(db)

	user, err := userRepo.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("user not found")
	}

	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}
	if err := userRepo.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.Fatal().Err(err).Msg("update password")
	}
	if err := userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString()); err != nil {
		log.Fatal().Err(err).Msg("revoke sessions")
	}

	log.Info().Str("username", user.Username).Msg("password reset, existing sessions revoked")
}
