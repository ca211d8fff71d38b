// Package financegate holds the PIN prompt in front of the finance views.
// It only slows casual access down and is not an authorization boundary.
package financegate

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"golang.org/x/crypto/bcrypt"
)

const DefaultUnlockTTL = 15 * time.Minute

// Settings is the settings_finance document. FinanceKeyHash wins over the
// plaintext FinanceKey when both are set.
type Settings struct {
	FinanceKey     string `json:"financeKey,omitempty"`
	FinanceKeyHash string `json:"financeKeyHash,omitempty"`
}

func (s Settings) Configured() bool {
	return s.FinanceKeyHash != "" || s.FinanceKey != ""
}

// Unlock is the session value stored under finance_unlock:<session>.
type Unlock struct {
	ExpiresAt int64 `json:"expiresAt"`
}

func (u Unlock) Expiry() time.Time {
	return time.UnixMilli(u.ExpiresAt)
}

var (
	ErrInvalidPIN    = internal.NewUnauthorizedError("Clave incorrecta.", internal.ErrCodeInvalidFinancePIN)
	ErrNotConfigured = internal.NewConflictError("La clave de finanzas no está configurada.", internal.ErrCodeFinanceNotConfigured)
	ErrFinanceLocked = internal.NewForbiddenError("Finanzas está bloqueado, ingresa la clave.", internal.ErrCodeFinanceLocked)
)

func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// Matches compares pin against the stored key in constant time.
func (s Settings) Matches(pin string) bool {
	if s.FinanceKeyHash != "" {
		hash := strings.TrimSpace(s.FinanceKeyHash)
		if strings.HasPrefix(hash, "$2") {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
		}
		got := HashPIN(pin)
		return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(got)) == 1
	}
	return subtle.ConstantTimeCompare([]byte(s.FinanceKey), []byte(pin)) == 1
}
