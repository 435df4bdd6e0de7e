// Package models holds the GORM models of the ledger tables. Domain types
// carry no ORM tags; each model converts to and from its aggregate.
//
// Files:
// - base.go: id, tenant and version columns shared by every table
// - ledger.go: retailers, invoices, payments and payment_allocations
// - notification.go: notifications
package models
