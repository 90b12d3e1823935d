package auth

import (
	"context"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/model"
)

// FirebaseVerifier verifies Firebase ID tokens
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a verifier from the firebase app
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase auth")
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify implements Verifier
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (model.Identity, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return model.Identity{}, ErrExpiredToken
		}
		return model.Identity{}, ErrInvalidToken
	}

	identity := model.Identity{UID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}
