package redisx

import "time"

const (
	// Idempotency for order submission: idem:order:create:{order_id} -> 1
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cached catalog page: catalog:page:{page}:genre:{genre_id}
	KeyCatalogPage = "catalog:page:%d:genre:%d"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLCatalogPage = 5 * time.Minute
)
