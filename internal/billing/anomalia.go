package billing

// codigoPorEstado maps estado ids to the 4-digit anomaly codes the
// downstream billing system understands.
var codigoPorEstado = map[int64]string{
	1: "0000",
	2: "0001",
	3: "0002",
	4: "0003",
	5: "0004",
	6: "0005",
}

// CodigoAnomalia returns the anomaly code for an estado id.
// Unmapped ids fall back to "0000"; that is the no-anomaly code, not an error.
func CodigoAnomalia(estadoID int64) string {
	if codigo, ok := codigoPorEstado[estadoID]; ok {
		return codigo
	}
	return "0000"
}
