// Command hashpassword prints a bcrypt hash for seeding storefront accounts.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/logger"
	"github.com/agroreach/storefront/internal/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(config.LoggingConfig{Level: "info", Format: "text"}).
			WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Logging)

	if len(os.Args) < 2 {
		log.Fatal("usage: hashpassword <password>")
	}

	passwords := auth.NewPasswordManager(cfg)
	hash, err := passwords.HashPassword(os.Args[1])
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}
	if err := passwords.VerifyPassword(os.Args[1], hash); err != nil {
		log.WithError(err).Fatal("hash verification failed")
	}

	log.WithFields(logrus.Fields{"cost": cfg.Security.BcryptCost}).Debug("hash verified")
	fmt.Println(hash)
}
