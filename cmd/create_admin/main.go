package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"municipio/models"
)

// Bootstraps an administrator account so the approval endpoints are usable
// on a fresh database.
func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_admin <username> <email> <password>")
		os.Exit(2)
	}
	username, email, password := os.Args[1], os.Args[2], os.Args[3]

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var role models.Role
	if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
		role = models.Role{Name: "administrator", Description: "full access"}
		db.Create(&role)
	}

	var existing models.AppUser
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := role.ID
	admin := models.AppUser{
		Name:           "Administrador",
		Lastname:       "Municipal",
		Username:       username,
		HashedPassword: hpw,
		Email:          email,
		IDType:         "CEDULA",
		Identification: username,
		Enabled:        true,
		RoleID:         &rid,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	fmt.Printf("created administrator %s (id=%d)\n", admin.Username, admin.ID)
}
