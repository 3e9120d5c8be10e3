package entity

import "time"

// Product producto del catálogo; aquí solo se usa para validar y para mensajes de error.
type Product struct {
	ID            string
	TenantID      string
	Name          string
	DefaultUnitID string
	CreatedAt     time.Time
}
