package domain

// Medicine is one sellable entry of the shop catalog.
type Medicine struct {
	Name string `db:"name" json:"name"`
}
