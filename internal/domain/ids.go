package domain

import "github.com/google/uuid"

// IsValidID acepta sólo la forma canónica de 36 caracteres (xxxxxxxx-xxxx-...).
// uuid.Parse también admite urn:uuid:, llaves y hex sin guiones, que PostgreSQL no castea igual.
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
