// Package roster is the credential store and authentication engine at
// the heart of doorgate.
//
// It owns the durable representation of subjects (people authorised to
// request entry) and the invariants over that store:
//   - credential (4-digit PIN) is unique - the primary key
//   - external ID is unique in its own namespace
//   - exactly one subject holds the fallback administrative credential
//     after bootstrap, and it can never be removed
//
// Uniqueness lives in the storage layer's constraints, not in
// check-then-act logic: pre-checks are UX hints only. Authentication
// is a single stateless exact-match lookup per attempt. Credentials
// are deliberately stored in plaintext with no lockout policy,
// mirroring the system doorgate replaces; see DESIGN.md.
package roster
