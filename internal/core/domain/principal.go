package domain

import "github.com/google/uuid"

// PrincipalKind discriminates how a request was authenticated.
type PrincipalKind string

const (
	PrincipalSession PrincipalKind = "SESSION"
	PrincipalAPIKey  PrincipalKind = "API_KEY"
)

// Principal is the authenticated identity attached to a request after
// admission. It is produced by an authentication strategy and threaded
// explicitly into services, never read back out of ambient state.
type Principal struct {
	MerchantID uuid.UUID
	Kind       PrincipalKind
	APIKeyID   *uuid.UUID // set only for API-key principals
}
