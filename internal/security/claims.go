package security

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller threaded through every operation.
type Principal struct {
	UserID uuid.UUID
	Role   string
	Ver    int64
	Exp    time.Time
	Issuer string
}
