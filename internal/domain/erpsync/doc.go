// Package erpsync contains the ERP synchronization bounded context.
// This context reconciles internal records with a third-party ERP reachable
// only through its REST API, and drives order lifecycle transitions there.
//
// Key concepts:
//   - Connector: Port for a tenant-bound, authenticated ERP REST client
//   - Record: Internal entity (customer, address, product, category, order, payment)
//   - Document: ERP-native document addressed by its native name
//   - SyncOutcome: Per-record result of a reconciliation attempt
//   - DocumentLink: Stored pointer from an internal record to its ERP native name
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package erpsync
