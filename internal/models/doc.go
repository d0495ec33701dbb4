// Package models defines the core domain models for the check-in API.
//
// # Models
//
//   - Visitor: a single check-in entry submitted from the public form
//   - NewVisitor: the validated input shape a Visitor is created from
//   - Admin: a seeded administrator account allowed to use the admin endpoints
//
// # Design Principles
//
// 1. **Fixed shape**: optional fields are pointers so they serialize as null
// 2. **Immutable records**: a Visitor is never updated after it is stored
// 3. **Boundary validation**: NewVisitor carries the validation rules, stores trust their input
package models
