package domain

import "time"

// Product is the local read model of a shared catalog product. It is
// maintained from catalog events; vendors browse it to pick what to list.
type Product struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Category       string    `db:"category" json:"category"`
	Unit           string    `db:"unit" json:"unit"`
	IsDiscontinued bool      `db:"is_discontinued" json:"is_discontinued"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
