package actiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PurposeUnsubscribe is the only action purpose currently minted.
const PurposeUnsubscribe = "unsubscribe"

// ErrInvalidToken is the single failure result of Verify.
// Expired, tampered, malformed and wrong-purpose tokens all collapse into
// this error so callers (and attackers probing the unsubscribe endpoint)
// cannot distinguish the cases.
var ErrInvalidToken = errors.New("invalid or expired token")

// Payload is the action a verified token authorizes
type Payload struct {
	Email         string
	PublicationID uuid.UUID
}

type claims struct {
	Email         string `json:"email"`
	PublicationID string `json:"publication_id"`
	Purpose       string `json:"purpose"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, time-bounded action tokens.
// Tokens are self-contained (HMAC-SHA256): no server-side lookup table,
// so the unsubscribe path needs no database round trip before verification.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a codec with the signing secret and default token lifetime
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured token lifetime (for email copy like "expires in 24h")
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue mints an opaque unsubscribe token for (email, publication).
// Pure function of payload + time + secret; nothing is persisted.
func (c *Codec) Issue(email string, publicationID uuid.UUID) (string, error) {
	now := time.Now()
	cl := claims{
		Email:         email,
		PublicationID: publicationID.String(),
		Purpose:       PurposeUnsubscribe,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return token.SignedString(c.secret)
}

// Verify checks signature, expiry and purpose.
// Returns the embedded payload, or ErrInvalidToken — never anything more
// specific.
func (c *Codec) Verify(tokenString string) (*Payload, error) {
	cl := &claims{}

	token, err := jwt.ParseWithClaims(tokenString, cl, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if cl.Purpose != PurposeUnsubscribe {
		return nil, ErrInvalidToken
	}

	pubID, err := uuid.Parse(cl.PublicationID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Payload{
		Email:         cl.Email,
		PublicationID: pubID,
	}, nil
}
