package entity

import "time"

// Store tienda o sucursal de un inquilino (multi-tienda).
type Store struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}
