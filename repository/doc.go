// Package repository provides a generic repository built on Bun: single and
// batched inserts, filtered and projected reads, counts, pagination, and
// set-based updates and deletes, all executed within a Session.
package repository
