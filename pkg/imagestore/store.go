// Package imagestore is the image domain: a MongoDB-backed store of
// processed site-camera records plus the keyword-driven answerer the
// query router's image tool serves.
package imagestore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
)

const connectTimeout = 5 * time.Second

type StoreConfig struct {
	URI        string
	Database   string
	Collection string
}

type Store struct {
	config     StoreConfig
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewWithConfig(config StoreConfig, logger *zap.Logger) (*Store, error) {
	if config.Database == "" {
		config.Database = "tier0_images"
	}
	if config.Collection == "" {
		config.Collection = "images"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		config:     config,
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
		logger:     logger,
	}, nil
}

// Find returns processed image records matching the safety filter. Nil
// filter fields are not constrained.
func (s *Store) Find(ctx context.Context, filter types.ImageFilter, limit int) ([]models.ImageInfo, error) {
	query := bson.M{"processed": true}
	if filter.HardHat != nil {
		query["safety_compliance.has_hard_hat"] = *filter.HardHat
	}
	if filter.SafetyVest != nil {
		query["safety_compliance.has_safety_vest"] = *filter.SafetyVest
	}
	if filter.Inspection != nil {
		query["safety_compliance.has_inspection_equipment"] = *filter.Inspection
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{
			"_id":               0,
			"filename":          1,
			"device_type":       1,
			"safety_compliance": 1,
			"keywords":          1,
		})

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.ImageInfo
	for cursor.Next(ctx) {
		var doc struct {
			Filename   string   `bson:"filename"`
			DeviceType string   `bson:"device_type"`
			Keywords   []string `bson:"keywords"`
			Compliance struct {
				HasHardHat      bool    `bson:"has_hard_hat"`
				HasSafetyVest   bool    `bson:"has_safety_vest"`
				HasInspection   bool    `bson:"has_inspection_equipment"`
				ComplianceScore float64 `bson:"compliance_score"`
			} `bson:"safety_compliance"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode image record: %w", err)
		}
		out = append(out, models.ImageInfo{
			Filename:   doc.Filename,
			DeviceType: doc.DeviceType,
			Keywords:   doc.Keywords,
			Compliance: models.ComplianceRecord{
				HasHardHat:      doc.Compliance.HasHardHat,
				HasSafetyVest:   doc.Compliance.HasSafetyVest,
				HasInspection:   doc.Compliance.HasInspection,
				ComplianceScore: doc.Compliance.ComplianceScore,
			},
		})
	}
	return out, cursor.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
