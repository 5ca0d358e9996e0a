// Package models contains GORM persistence models that map to the person and
// invoice tables. They stay separate from domain entities so the domain
// layer carries no ORM tags.
//
//   - base.go: RecordModel with id, timestamps, version and hidden flag
//   - person.go: PersonModel and its mappers
//   - invoice.go: InvoiceModel, its mappers and the summary row projection
package models
