// Package models defines the core domain models for SimpleBank.
//
// # Models
//
//   - User: a registered account (email + bcrypt password hash)
//   - Transaction: a signed-amount ledger entry owned by exactly one user
//   - Money: an amount in currency minor units (int64 cents, never floats)
//
// # Design Principles
//
// 1. **Owner scoping**: every Transaction carries an OwnerID set at creation
// and never reassigned; all reads and writes are keyed on (id, owner).
// 2. **Minor-unit money**: amounts are stored and computed as int64 cents.
// Decimal strings are parsed with half-up rounding; floats never enter
// arithmetic.
// 3. **Avoid circular references**: relationships use ID strings, not
// pointers.
package models
