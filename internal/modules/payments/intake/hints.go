package intake

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/yungbote/payledger/internal/domain/aggregates"
)

// EncodeHints serializes parser hints for storage. Empty hints are stored as NULL.
func EncodeHints(h map[string]any) (datatypes.JSON, error) {
	if len(h) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// DecodeHints reads stored hints back. Numbers keep their literal text; unreadable blobs decode to nil.
func DecodeHints(raw datatypes.JSON) map[string]any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeHints gives hints the shape they have after a storage round trip, so a
// submission fingerprints the same whether its hints came from a caller or from evidence.
func normalizeHints(op string, h map[string]any) (map[string]any, error) {
	raw, err := EncodeHints(h)
	if err != nil {
		return nil, aggregates.NewError(aggregates.CodeValidation, op, "parser hints are not serializable", err)
	}
	return DecodeHints(raw), nil
}
