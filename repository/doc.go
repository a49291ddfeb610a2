// Package repository provides a generic repository abstraction built on Bun
// for selector lookups, dictionary-shaped filtering, sorting, pagination,
// relation loading, archive/soft-delete, and upsert support.
package repository
