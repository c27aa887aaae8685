package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient verifies the ID tokens clients obtain from Firebase
// Authentication.
type FirebaseAuthClient struct {
	client       *auth.Client
	checkRevoked bool
}

// NewFirebaseAuthClient wraps client. With checkRevoked set every
// verification also asks Firebase whether the user's sessions were revoked
// or the account disabled, which costs a round trip per request.
func NewFirebaseAuthClient(client *auth.Client, checkRevoked bool) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:       client,
		checkRevoked: checkRevoked,
	}
}

// VerifyToken checks an ID token's signature and expiry and returns its uid.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	var (
		result *auth.Token
		err    error
	)
	if f.checkRevoked {
		result, err = f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	} else {
		result, err = f.client.VerifyIDToken(ctx, token)
	}
	if err != nil {
		return "", err
	}
	return result.UID, nil
}
