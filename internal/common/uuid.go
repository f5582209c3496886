package common

import (
	"strings"

	"github.com/google/uuid"
)

// UUID is kept as a string so it can be compared, used as a map key and
// passed straight to the SQL driver.
type UUID string

func NewUUID() UUID {
	return UUID(uuid.NewString())
}

func ParseUUID(value string) (UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return UUID(parsed.String()), nil
}

func (u UUID) String() string {
	return string(u)
}

func (u UUID) IsZero() bool {
	return u == ""
}
