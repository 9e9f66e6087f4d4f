// internal/app/store/customers/customerstore.go
package customerstore

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable number printed on quotations and
//     invoices, used together with a project number for number-based sign-in

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/normalize"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/status"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("customers")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a customer with an email that already exists.
	ErrDuplicateEmail = errors.New("a customer with this email already exists")
	// ErrDuplicateCustomerNumber is returned when the customer number is already taken.
	ErrDuplicateCustomerNumber = errors.New("a customer with this customer number already exists")
	errBadRole                 = errors.New("invalid role")
	errBadStatus               = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod           = errors.New(`auth method must be "password"|"google"|"number"`)
)

// GetByID loads a customer by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail looks up a customer by case/diacritic-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	folded := text.Fold(normalize.Email(email))
	if err := s.c.FindOne(ctx, bson.M{"email_ci": folded}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCustomerNumber looks up a customer by their back-office customer number.
func (s *Store) GetByCustomerNumber(ctx context.Context, customerNumber string) (*models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"customer_number": normalize.QueryParam(customerNumber)}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new customer after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, c models.Customer) (models.Customer, error) {
	c.ID = primitive.NewObjectID()
	c.FullName = normalize.Name(c.FullName)
	c.FullNameCI = text.Fold(c.FullName)

	if c.Email != nil && *c.Email != "" {
		email := normalize.Email(*c.Email)
		emailCI := text.Fold(email)
		c.Email = &email
		c.EmailCI = &emailCI
	}

	c.CustomerNumber = normalize.QueryParam(c.CustomerNumber)
	c.AuthMethod = normalize.AuthMethod(c.AuthMethod)
	if !models.IsValidAuthMethod(c.AuthMethod) {
		return models.Customer{}, errBadAuthMethod
	}

	if c.Role == "" {
		c.Role = models.RoleCustomer
	}
	if !models.IsValidRole(c.Role) {
		return models.Customer{}, errBadRole
	}

	if c.Status == "" {
		c.Status = status.Default()
	}
	if !status.IsValid(c.Status) {
		return models.Customer{}, errBadStatus
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Customer{}, classifyDuplicate(err)
		}
		return models.Customer{}, err
	}
	return c, nil
}

// classifyDuplicate maps a duplicate key error to the offending field.
func classifyDuplicate(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "customer_number") {
				return ErrDuplicateCustomerNumber
			}
		}
	}
	return ErrDuplicateEmail
}

// SetPasswordHash updates the customer's bcrypt password hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password_hash": hash,
			"updated_at":    time.Now(),
		},
	})
	return err
}

// SetStatus enables or disables a customer account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.IsValid(st) {
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     st,
			"updated_at": time.Now(),
		},
	})
	return err
}

// SetRole changes a customer's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return errBadRole
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"role":       role,
			"updated_at": time.Now(),
		},
	})
	return err
}

// Count returns the total number of customers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
