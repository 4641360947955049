package entity

import "time"

// MainStoreID identidad reservada de la tienda principal (centro de distribución de las sedes).
const MainStoreID = "00000000-0000-0000-0000-000000000001"

// Store representa una sede (tienda) con stock dividido entre bodega y exhibición.
type Store struct {
	ID        string
	Name      string
	Address   string
	IsMain    bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
