package entity

import "time"

// Client representa un cliente de la agencia de carga.
// Puede nacer de captura manual o del pipeline de ingesta de CFDI; en el
// segundo caso Email es un placeholder sintetizado (los CFDI no traen email).
type Client struct {
	ID           string
	Name         string
	TaxID        string // RFC (México)
	Email        string
	Phone        string
	Currency     string // ISO 4217; la factura más reciente manda (MXN, USD, ...)
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      string
	FiscalRegime string // clave SAT de régimen fiscal (601, 612, ...)
	CFDIUsage    string // clave de uso CFDI (G03, S01, ...)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
