package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransferNumberPrefix prefijo mensual de numeración: TF{yyyyMM}.
func TransferNumberPrefix(date time.Time) string {
	return "TF" + date.Format("200601")
}

// NextTransferNumber incrementa el mayor número existente del mes (vacío si no hay ninguno).
// Formato: TF{yyyyMM}{secuencia de 4 dígitos}.
func NextTransferNumber(date time.Time, lastNumber string) (string, error) {
	prefix := TransferNumberPrefix(date)
	seq := 0
	if lastNumber != "" {
		if !strings.HasPrefix(lastNumber, prefix) {
			return "", fmt.Errorf("número de traslado %q fuera del mes %s", lastNumber, prefix)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(lastNumber, prefix))
		if err != nil {
			return "", fmt.Errorf("número de traslado %q inválido: %w", lastNumber, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// CompareTransferNumbers ordena números del mismo prefijo por su consecutivo: el más largo es mayor
// (la secuencia supera los 4 dígitos después de 9999) y a igual largo decide el orden de texto.
func CompareTransferNumbers(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
