// Package models defines the core domain models for BillSnap.
//
// # Entities
//
//   - Account: a person, identified by a unique email
//   - Bill: a named expense with items, taxes, a tip policy and a status
//   - Item: a cost line owned by exactly one bill
//   - ItemShare: the percentage of one item assigned to one account
//   - BillMembership: an account's participation in a bill (invitation, share, payments)
//   - Notification: an immutable "account X was invited to bill Y" record
//
// # Design Principles
//
//  1. **No object cycles**: relations are ID strings, never mutual pointers.
//     A loaded Bill carries its Items and Taxes by value; memberships are
//     loaded separately and refer to the bill by ID.
//  2. **Exact money**: all amounts and percentages are decimal.Decimal.
//  3. **Forward-only state**: BillStatus and InvitationStatus expose the
//     only transitions allowed (see status.go).
package models
