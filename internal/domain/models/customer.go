// internal/domain/models/customer.go
package models

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable number printed on quotations and invoices,
//     used together with a project number for number-based sign-in

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer represents a portal account holder.
//
// Auth fields:
//   - Email: sign-in identifier and contact address (stored lowercase)
//   - CustomerNumber: back-office customer number for number-based sign-in
//   - AuthMethod: password, google, number
type Customer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	Email          *string `bson:"email" json:"email"`       // sign-in email (lowercase)
	EmailCI        *string `bson:"email_ci" json:"-"`        // folded for case-insensitive matching
	CustomerNumber string  `bson:"customer_number" json:"customer_number"`
	AuthMethod     string  `bson:"auth_method" json:"auth_method"`

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`                         // customer, admin
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Customer roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// AllRoles returns all valid customer roles.
func AllRoles() []string {
	return []string{
		RoleCustomer,
		RoleAdmin,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
