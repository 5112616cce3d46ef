// Package database ouvre les connexions aux différents stores au démarrage.
// Les handles sont retournés dans une structure injectée aux constructeurs —
// pas de variables globales de package.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"velora_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connections regroupe les handles ouverts par Connect. Elastic et MinIO
// sont optionnels : nil si non configurés.
type Connections struct {
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Redis       *redis.Client
	Elastic     *elasticsearch.Client
	MinIO       *minio.Client
}

// Connect ouvre MongoDB, Redis, et si configurés Elasticsearch et MinIO.
// MongoDB et Redis sont obligatoires : une erreur ici doit arrêter le
// processus.
func Connect(ctx context.Context, cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	// --- MongoDB ---
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	conns.MongoClient = client
	conns.Mongo = client.Database(cfg.MongoDatabase)
	log.Println("✅ Connecté à MongoDB :", cfg.MongoDatabase)

	// --- Redis ---
	conns.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := conns.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")

	// --- Elasticsearch (optionnel) ---
	if cfg.ElasticURL != "" {
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{cfg.ElasticURL},
			Username:  cfg.ElasticUser,
			Password:  cfg.ElasticPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("client Elasticsearch: %w", err)
		}
		res, err := es.Info()
		if err != nil {
			return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
		}
		res.Body.Close()
		conns.Elastic = es
		log.Println("✅ Connecté à Elasticsearch")
	} else {
		log.Println("⚠️ Elasticsearch non configuré — recherche plein texte désactivée")
	}

	// --- MinIO (optionnel) ---
	if cfg.MinioEndpoint != "" {
		mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("connexion MinIO: %w", err)
		}
		exists, err := mc.BucketExists(ctx, cfg.MinioBucket)
		if err != nil {
			return nil, fmt.Errorf("vérification bucket MinIO: %w", err)
		}
		if !exists {
			if err := mc.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("création bucket MinIO: %w", err)
			}
			log.Println("🪣 Bucket créé :", cfg.MinioBucket)
		} else {
			log.Println("🪣 Bucket MinIO déjà présent :", cfg.MinioBucket)
		}
		conns.MinIO = mc
		log.Println("✅ Connecté à MinIO :", cfg.MinioEndpoint)
	} else {
		log.Println("⚠️ MinIO non configuré — upload d'images désactivé")
	}

	return conns, nil
}

// Close ferme proprement les connexions ouvertes.
func (c *Connections) Close(ctx context.Context) {
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			log.Println("🔌 Erreur fermeture MongoDB:", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Println("🔌 Erreur fermeture Redis:", err)
		}
	}
}
