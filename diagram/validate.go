package diagram

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator with the diagram tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("relation", func(fl validator.FieldLevel) bool {
			return IsRelation(Relation(fl.Field().String()))
		})
	})
	return validate
}

// IsRelation reports whether r is one of the known relation labels.
func IsRelation(r Relation) bool {
	for _, known := range Relations() {
		if r == known {
			return true
		}
	}
	return false
}

// ValidateNode checks a single node's field constraints.
func ValidateNode(n Node) error {
	if err := Validator().Struct(n); err != nil {
		return err
	}
	if !IsFinite(n.X) || !IsFinite(n.Y) {
		return ErrNonFiniteCoordinate
	}
	return nil
}

// ValidateConnection checks a single connection's field constraints.
func ValidateConnection(c Connection) error {
	return Validator().Struct(c)
}
