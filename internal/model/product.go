package model

// Product carries nothing but an identity. Rows are created implicitly the
// first time a promotion references the id; deleting a promotion never
// deletes the products it pointed at.
type Product struct {
	ID uint `gorm:"primaryKey"`
}
