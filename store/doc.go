// Package store defines the contract every store driver implements and the error
// taxonomy shared by drivers, repositories and request handlers.
//
// # Drivers
//
// Two drivers exist: a relational one built on bun (PostgreSQL through lib/pq or
// pgx, SQLite through go-sqlite3) and a document one built on the MongoDB driver.
// Both return plain model values; no backend specific type crosses this package
// boundary.
//
// # Errors
//
//   - ValidationError: a field is missing or malformed. Raised by repositories
//     before any backend call.
//   - ConstraintViolation: a unique or reference constraint failed. The message is
//     the backend's own.
//   - StoreUnavailable: the backend could not be reached or timed out.
//
// Absence is not an error: FindByID, Patch and repository reads return a nil
// pointer when the id does not exist.
package store
