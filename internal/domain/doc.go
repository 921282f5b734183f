// Package domain defines the core business types for the IGNITE audience console.
//
// Types here are value objects shared between handlers, services, and
// stores. They carry no storage or HTTP concerns.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No AWS clients, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Pure helpers on the types are allowed
//   - Constants and enums belong here
package domain
