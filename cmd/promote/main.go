package main

import (
	"context" // Service calls
	"flag"    // Command line flags

	"task_rewards/internal/account" // Role changes
	"task_rewards/internal/config"  // Configuration
	"task_rewards/internal/db"      // Database connection
	"task_rewards/internal/domain"  // Roles

	"github.com/sirupsen/logrus" // Logging library
)

// Grants or revokes the admin role: promote -username alice [-role member]
func main() {
	username := flag.String("username", "", "user to update")
	role := flag.String("role", string(domain.RoleAdmin), "role to assign (admin or member)")
	flag.Parse()

	if *username == "" {
		logrus.Fatal("-username is required")
	}
	r := domain.Role(*role)
	if r != domain.RoleAdmin && r != domain.RoleMember {
		logrus.Fatalf("unknown role %q", *role)
	}

	cfg := config.LoadConfig()
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	accounts := account.NewService(database, nil) // Role changes never allocate referral codes
	if err := accounts.SetRole(context.Background(), *username, r); err != nil {
		logrus.Fatalf("failed to set role: %v", err)
	}
	logrus.WithFields(logrus.Fields{"username": *username, "role": r}).Info("Role updated")
}
