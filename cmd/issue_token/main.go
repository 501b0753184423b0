// Command issue_token prints a signed API token for an operator or an integration.
// It signs with the same JWT_SECRET and JWT_ISSUER the server reads.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/platform/config"
	"github.com/SscSPs/securities_registry/internal/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	userID := flag.String("user", "", "user ID placed in the token subject")
	role := flag.String("role", string(domain.RoleViewer), "viewer, editor or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		logger.Error("-user is required")
		os.Exit(2)
	}
	r := domain.Role(*role)
	if !r.Satisfies(domain.RoleViewer) {
		logger.Error("Unknown role", slog.String("role", *role))
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	token, err := utils.GenerateJWT(*userID, r, cfg.JWTSecret, *ttl, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
