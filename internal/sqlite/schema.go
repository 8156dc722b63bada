package sqlite

// Schema DDL. SQLite is rebuilt from the JSONL files on every attach.
const (
	createChartTables = `CREATE TABLE chart_tables (
    table_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    is_default INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL
);`

	createProducts = `CREATE TABLE products (
    table_id TEXT NOT NULL,
    product_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    pid TEXT,
    type TEXT,
    name TEXT NOT NULL DEFAULT '',
    vendor TEXT NOT NULL DEFAULT '',
    uid TEXT NOT NULL DEFAULT '',
    planned_cost REAL NOT NULL DEFAULT 0,
    price REAL NOT NULL DEFAULT 0,
    paid_by TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    group_name TEXT NOT NULL DEFAULT '',
    is_final INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (table_id, product_id),
    FOREIGN KEY (table_id) REFERENCES chart_tables(table_id) ON DELETE CASCADE
);`

	createCatalog = `CREATE TABLE catalog (
    object_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    price REAL NOT NULL DEFAULT 0,
    type TEXT NOT NULL DEFAULT '',
    uid TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    promoted INTEGER NOT NULL DEFAULT 0
);`

	createOwners = `CREATE TABLE owners (
    uid TEXT PRIMARY KEY,
    user_name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT ''
);`
)

// Index DDL for the catalog search and table listing.
const (
	idxProductsTable  = `CREATE INDEX idx_products_table ON products(table_id, ordinal);`
	idxCatalogActive  = `CREATE INDEX idx_catalog_active ON catalog(active);`
	idxCatalogType    = `CREATE INDEX idx_catalog_type ON catalog(type);`
	idxCatalogSeller  = `CREATE INDEX idx_catalog_uid ON catalog(uid);`
	idxTablesPosition = `CREATE INDEX idx_chart_tables_position ON chart_tables(position);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createChartTables,
	createProducts,
	createCatalog,
	createOwners,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxProductsTable,
	idxCatalogActive,
	idxCatalogType,
	idxCatalogSeller,
	idxTablesPosition,
}
