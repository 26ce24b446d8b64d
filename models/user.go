package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the minimal account projection this service needs. Account
// creation, passwords and sessions live in the identity provider; we only
// ever trust the userId from a verified JWT.
type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	FullName  string             `json:"fullName" bson:"fullName"`
	UserType  string             `json:"userType" bson:"userType"` // "tenant", "landlord", "prospect"
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// TenantProfile is the sharable rental profile. HasRentcard is the
// "complete enough to share" precondition checked before minting tokens.
type TenantProfile struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	FullName      string             `json:"fullName" bson:"fullName"`
	Email         string             `json:"email" bson:"email"`
	Phone         string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Employment    string             `json:"employment,omitempty" bson:"employment,omitempty"`
	MonthlyIncome int                `json:"monthlyIncome,omitempty" bson:"monthlyIncome,omitempty"`
	CreditScore   int                `json:"creditScore,omitempty" bson:"creditScore,omitempty"`
	HasRentcard   bool               `json:"hasRentcard" bson:"hasRentcard"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SharedRentcardView is the public projection returned for a valid share
// token. Deliberately omits anything the viewer has no business seeing.
type SharedRentcardView struct {
	FullName      string `json:"fullName"`
	Employment    string `json:"employment,omitempty"`
	MonthlyIncome int    `json:"monthlyIncome,omitempty"`
	CreditScore   int    `json:"creditScore,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
