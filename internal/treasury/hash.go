package treasury

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"tesoreria/internal/money"
)

// Domain prefixes for content-addressed keys. The version suffix allows
// a future algorithm migration without colliding with old keys.
const (
	domainOrder   = "tesoreria/order/v1"
	domainPayroll = "tesoreria/payroll/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OrderSubmissionKey derives the idempotency key for a generated payment
// order. Two orders for the same source, subject, due date and amount get
// the same key, so a repeated submission is caught by the store's UNIQUE
// constraint.
func OrderSubmissionKey(source, subjectID string, dueDate string, amount money.Money) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"source":   source,
		"subject":  subjectID,
		"due_date": dueDate,
		"amount":   amount.Cents(),
	})
	if err != nil {
		return "", fmt.Errorf("order submission key: %w", err)
	}
	return hashWithDomain(domainOrder, canonical), nil
}

// PayrollSubmissionKey derives the idempotency key for a payroll batch
// submission from the batch identity and its lines. Lines are sorted by
// employee so the key does not depend on insertion order.
func PayrollSubmissionKey(batchID, period string, lines []PayrollLine) (string, error) {
	sorted := make([]PayrollLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EmployeeID < sorted[j].EmployeeID
	})

	lineObjs := make([]any, len(sorted))
	for i, l := range sorted {
		lineObjs[i] = map[string]any{
			"employee": l.EmployeeID,
			"amount":   l.Amount.Cents(),
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"batch":  batchID,
		"period": period,
		"lines":  lineObjs,
	})
	if err != nil {
		return "", fmt.Errorf("payroll submission key: %w", err)
	}
	return hashWithDomain(domainPayroll, canonical), nil
}

// MarshalCanonical produces deterministic JSON for hashing: object keys
// sorted bytewise, strings NFC-normalized, no HTML escaping, and no
// floats or nulls (both break determinism and are rejected).
//
// This is only for content hashing; API responses use plain
// encoding/json.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case money.Money:
		fmt.Fprintf(buf, "%d", val.Cents())
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// writeCanonicalString writes an NFC-normalized JSON string without HTML
// escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
