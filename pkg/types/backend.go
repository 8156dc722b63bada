package types

// Backend is a storage backend serving every collaborator the charts core
// reads from. Attach must be called before any other method; after Detach
// all operations return ErrStoreClosed.
type Backend interface {
	Attach(config Config) error
	Detach() error

	TableStore
	CatalogSearcher
	CatalogWriter
	Directory
}
