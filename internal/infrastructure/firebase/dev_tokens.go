package firebase

import (
	"context"
)

// GenerateDevToken mints a custom token for uid. Clients exchange it for an
// ID token through the Firebase SDK; only the development router exposes it.
func (f *FirebaseAuthClient) GenerateDevToken(ctx context.Context, uid string, admin bool) (string, error) {
	if !admin {
		return f.client.CustomToken(ctx, uid)
	}
	return f.client.CustomTokenWithClaims(ctx, uid, map[string]interface{}{"admin": true})
}
