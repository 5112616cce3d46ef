package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration lue au démarrage. Elle est injectée
// dans les constructeurs — aucun composant ne relit l'environnement ensuite.
type Config struct {
	Port string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	StripeSecretKey     string
	StripeWebhookSecret string

	JWTSecret string

	SessionSecret string
	BaseURL       string

	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	// Coordonnées bancaires pour le QR SEPA de la facture
	CompanyIBAN string
	CompanyBIC  string
	CompanyName string
}

// Load charge .env puis construit la configuration. Les valeurs absentes
// reçoivent des défauts de développement.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "velora"),

		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "velora-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		JWTSecret: getEnv("JWT_SECRET", "super_secret"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),

		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
		FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),

		SMTPHost:     getEnv("SMTP_HOST", "ssl0.ovh.net"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getEnv("EMAIL_FROM", "noreply@velora.shop"),

		CompanyIBAN: getEnv("COMPANY_IBAN", "BE12345678901234"),
		CompanyBIC:  getEnv("COMPANY_BIC", "KREDBEBB"),
		CompanyName: getEnv("COMPANY_NAME", "Velora SRL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, fallback)
		return fallback
	}
	return n
}
