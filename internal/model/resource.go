package model

// Resource is a bookable consumable type (canoe, kayak, SUP, ...).  Each
// resource owns one ledger table with a row per calendar date and a column
// per 15-minute interval.  Resources are configured by an administrator,
// loaded once at startup and treated as immutable while the process runs.
//
// Fields:
//  ID          – primary key identifier.
//  Slug        – stable machine name used in API payloads ("canoe").
//  Name        – display name shown in the admin panel.
//  MaxQuantity – capacity ceiling per 15-minute interval.
//  LedgerTable – name of the ledger table holding this resource's rows.
type Resource struct {
	ID          uint64 // resources.id
	Slug        string // resources.slug
	Name        string // resources.name
	MaxQuantity int    // resources.max_quantity
	LedgerTable string // resources.ledger_table
}
