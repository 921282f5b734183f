// Package contact implements contact profile management.
//
// The service layer owns validation and normalization for contact records:
// email addresses are the natural identity of a contact and are stored
// lowercase, exactly once. Attribute updates merge into the existing field
// map so segment rules keep seeing the full profile.
//
// Repository implementations live in storage/ (DynamoDB) and in test fakes.
package contact
