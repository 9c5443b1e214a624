package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"municipio/models"
)

// Audits the asset invariant: every asset row must point at a reachable
// remote object. Rows whose object answers non-2xx are reported; with
// --delete-orphans the dangling rows are removed.
func main() {
	deleteOrphans := flag.Bool("delete-orphans", false, "delete asset rows whose remote object is gone")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	var rows []models.Asset
	if err := db.Order("id").Find(&rows).Error; err != nil {
		log.Fatalf("loading asset rows: %v", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	var missing []models.Asset
	for _, a := range rows {
		resp, err := client.Head(a.URL)
		if err != nil {
			fmt.Printf("UNREACHABLE id=%d public_id=%s err=%v\n", a.ID, a.PublicID, err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			fmt.Printf("MISSING id=%d owner=%s/%d role=%s public_id=%s\n",
				a.ID, a.OwnerType, a.OwnerID, a.Role, a.PublicID)
			missing = append(missing, a)
		}
	}

	fmt.Printf("checked %d rows, %d missing\n", len(rows), len(missing))
	if !*deleteOrphans || len(missing) == 0 {
		return
	}
	for _, a := range missing {
		if err := db.Delete(&models.Asset{}, a.ID).Error; err != nil {
			log.Printf("delete row %d failed: %v", a.ID, err)
			continue
		}
		fmt.Printf("deleted row %d\n", a.ID)
	}
}
