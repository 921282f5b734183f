// Package campaign implements campaign lifecycle management.
//
// A campaign's audience is a list of include and exclude segment ids;
// the actual recipient set is materialized by the send worker at delivery
// time. The service layer owns the status machine: draft -> queued ->
// sending -> sent/failed, with cancellation only while still queued.
//
// Repository implementations live in storage/ (DynamoDB) and in test fakes.
package campaign
