// Command admin_seed prints the admin credential variables for .env. The
// password is read from ADMIN_PASSWORD and only its bcrypt hash is printed.
package main

import (
	"fmt"
	"log"
	"os"

	"transactx/internal/config"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := config.GetEnv("ADMIN_EMAIL", "admin@transactx.local")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be set in environment")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	fmt.Printf("ADMIN_EMAIL=%s\n", adminEmail)
	// Single quotes stop godotenv from expanding the $ in the hash.
	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hashedPassword)
}
