package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"municipio/pkg/approval"
	"municipio/pkg/assets"
	"municipio/pkg/cascade"
	"municipio/pkg/mailer"
	"municipio/pkg/otp"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

func main() {
	_ = godotenv.Load()

	initLogger()
	defer logger.Sync()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./municipio migrate`
	// runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	s3cfg := assets.S3Config{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Bucket:    os.Getenv("S3_BUCKET"),
		PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}
	s3store, err := assets.NewS3Store(context.Background(), s3cfg, logger)
	if err != nil {
		logger.Fatal("object store init failed", zap.Error(err))
	}
	store = s3store

	notifier = buildNotifier()

	uploader = assets.NewCoordinator(store, logger)
	deleter = cascade.New(gormTx{db}, store, logger)
	workflow = approval.New(approvalRepo{db}, deleter, notifier, logger)
	recovery = otp.New(otpRepo{db}, notifier, validatePassword, logger)

	r := gin.Default()
	setupRoutes(r)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildNotifier wires the SMTP sender, or a discard sink when SMTP is not
// configured (local development).
func buildNotifier() mailer.Notifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		logger.Warn("SMTP_HOST not set, email notifications disabled")
		return mailer.Discard{}
	}
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		port = p
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("SMTP_USER"),
		Pass:     os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
		Insecure: os.Getenv("SMTP_INSECURE") == "true",
	}, logger)
}
