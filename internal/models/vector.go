package models

import (
	"database/sql/driver"

	"github.com/pgvector/pgvector-go"
)

// NullVector is a nullable pgvector column. A record has no vector until at
// least one embedding generation succeeded for it.
type NullVector struct {
	Vector pgvector.Vector
	Valid  bool
}

// SomeVector wraps a concrete vector as a valid NullVector.
func SomeVector(v pgvector.Vector) NullVector {
	return NullVector{Vector: v, Valid: true}
}

// Scan implements sql.Scanner.
func (v *NullVector) Scan(src interface{}) error {
	if src == nil {
		*v = NullVector{}
		return nil
	}
	if err := v.Vector.Scan(src); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (v NullVector) Value() (driver.Value, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.Vector.Value()
}
