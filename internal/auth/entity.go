// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

const SessionsCollection = "sessions"

// Session is one link in a rotating refresh-token chain. Every link of a
// chain shares FamilyID; reuse of a spent link revokes the family.
type Session struct {
	ID           string     `json:"id"                     firestore:"id"`
	UserID       string     `json:"user_id"                firestore:"user_id"`
	Email        string     `json:"email"                  firestore:"email"`
	TokenHash    string     `json:"token_hash"             firestore:"token_hash"`
	FamilyID     string     `json:"family_id"              firestore:"family_id"`
	ExpiresAt    time.Time  `json:"expires_at"             firestore:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"             firestore:"created_at"`
	IsUsed       bool       `json:"is_used"                firestore:"is_used"`
	UsedAt       *time.Time `json:"used_at"                firestore:"used_at"`
	RevokedAt    *time.Time `json:"revoked_at"             firestore:"revoked_at"`
	ReplacedByID *string    `json:"replaced_by_id"         firestore:"replaced_by_id"`
	UserAgent    string     `json:"user_agent"             firestore:"user_agent"`
	IPAddress    string     `json:"ip_address"             firestore:"ip_address"`
	ProviderRT   string     `json:"provider_refresh_token" firestore:"provider_refresh_token"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked() && !s.IsUsed
}
