package roster

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate maps a submitted credential to the subject holding it,
// or ErrAccessDenied when no subject does. It is a pure lookup: no
// side effects, no retries, no rate limiting. The credential must be
// pre-trimmed by the caller; comparison is an exact string match.
//
// Any other error means the store itself failed and is distinct from a
// denial.
func Authenticate(ctx context.Context, repo SubjectRepository, credential string) (*Subject, error) {
	subject, err := repo.GetByCredential(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("looking up credential: %w", err)
	}
	return subject, nil
}
