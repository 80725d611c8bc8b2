package entity

import "fmt"

// DocumentType tipo de documento con numeración consecutiva.
type DocumentType string

// Tipos de documento numerados.
const (
	DocumentInvoice       DocumentType = "invoice"
	DocumentPurchaseOrder DocumentType = "purchase_order"
)

// Prefix prefijo del número visible.
func (d DocumentType) Prefix() string {
	switch d {
	case DocumentInvoice:
		return "INV-"
	case DocumentPurchaseOrder:
		return "PO-"
	}
	return ""
}

// Valid indica si el tipo de documento es conocido.
func (d DocumentType) Valid() bool {
	return d.Prefix() != ""
}

// FormatNumber da formato al consecutivo: prefijo + 6 dígitos con ceros a la izquierda.
func FormatNumber(d DocumentType, n int64) string {
	return fmt.Sprintf("%s%06d", d.Prefix(), n)
}

// DocumentTypeFor tipo de documento que numera cada tipo de pedido.
func DocumentTypeFor(t OrderType) DocumentType {
	if t == OrderTypePurchase {
		return DocumentPurchaseOrder
	}
	return DocumentInvoice
}
