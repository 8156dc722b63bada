// Package types defines the registry data model (tables, products, drafts,
// catalog entries), the collaborator interfaces the charts core talks to,
// and the standard error values shared across packages.
package types
