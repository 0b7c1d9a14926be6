// File: services/booking/pricing.go
package booking

import (
	"context"
	"time"

	"dentaflow/config"
	"dentaflow/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// PricingSource serves the clinic's pricing text. A document stored in Mongo
// overrides the configured fallback, so the front desk can update prices
// without a deploy.
type PricingSource struct {
	coll *mongo.Collection // nil means config-only
}

func NewPricingSource(coll *mongo.Collection) *PricingSource {
	return &PricingSource{coll: coll}
}

type pricingDoc struct {
	Text      string    `bson:"text"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// PricingDocument returns the current pricing text, preferring the most
// recently stored override. Lookup failures fall back to configuration.
func (p *PricingSource) PricingDocument(ctx context.Context) string {
	if p.coll != nil {
		findCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var doc pricingDoc
		opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
		err := p.coll.FindOne(findCtx, bson.M{}, opts).Decode(&doc)
		switch {
		case err == nil && doc.Text != "":
			return doc.Text
		case err != nil && err != mongo.ErrNoDocuments:
			utils.GetLogger().Warn("pricing lookup failed, using configured text", zap.Error(err))
		}
	}
	if config.AppConfig.PricingText != "" {
		return config.AppConfig.PricingText
	}
	return "Please call the front desk for our current price list."
}
