// internal/app/store/customers/fetcher.go
package customerstore

import (
	"context"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/normalize"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/timeouts"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.CustomerFetcher to load fresh customer data on
// each request. It fetches customer data from MongoDB.
type Fetcher struct {
	customers *mongo.Collection
	logger    *zap.Logger
}

// NewFetcher creates a CustomerFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		customers: db.Collection("customers"),
		logger:    logger,
	}
}

// FetchCustomer retrieves a customer by ID and returns nil if the customer
// is not found, disabled, or if any error occurs. This implements
// auth.CustomerFetcher.
func (f *Fetcher) FetchCustomer(ctx context.Context, customerID string) *auth.SessionCustomer {
	oid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil
	}

	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var c models.Customer
	proj := options.FindOne().SetProjection(bson.M{
		"_id":             1,
		"full_name":       1,
		"email":           1,
		"customer_number": 1,
		"role":            1,
		"status":          1,
	})

	if err := f.customers.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&c); err != nil {
		// Customer not found or DB error
		return nil
	}

	if normalize.Status(c.Status) == "disabled" {
		return nil
	}

	email := ""
	if c.Email != nil {
		email = *c.Email
	}
	return &auth.SessionCustomer{
		ID:             c.ID.Hex(),
		Name:           c.FullName,
		Email:          email,
		CustomerNumber: c.CustomerNumber,
		Role:           normalize.Role(c.Role),
	}
}
