package catalog

import "github.com/vitaguide/backend/internal/domain/shared"

// Recommendation preconditions
var (
	ErrUserNotFound  = shared.NewDomainError("USER_NOT_FOUND", "User not found")
	ErrFormNotFilled = shared.NewDomainError("FORM_NOT_FILLED", "Health form has not been completed")
)
