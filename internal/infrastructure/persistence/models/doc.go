// Package models contains the GORM models of the synchronization tables.
//
// Models are kept apart from the erpsync domain types so the domain stays free
// of ORM tags. Each model converts to its domain type with ToDomain; the
// writable ones also have FromDomain.
//
//   - erpsync.go: tenant ERP configuration and document links
//   - records.go: the internal system-of-record tables read by the record source
package models
