package authx

import (
	"github.com/kvittoapp/kvitto/sdk/meta"
)

// User represents a (human) Kvitto user.
type User struct {
	meta.TypeMeta   `json:",inline" bson:",inline"`
	meta.ObjectMeta `json:"metadata" bson:",inline"`
	// Email is the user's email address as asserted by the identity provider.
	Email string `json:"email" bson:"email"`
	// Name is the user's given name as asserted by the identity provider.
	Name string `json:"name" bson:"name"`
	// CompanyID identifies the company the user belongs to.
	CompanyID string `json:"companyId" bson:"companyId"`
	// Role is the user's role within their company, e.g. "member" or "admin".
	Role string `json:"role" bson:"role"`
}
