package bybit

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kline represents a single OHLCV bar. Sequences are ordered oldest first.
type Kline struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Trade is one public trade from the recent-trade window.
type Trade struct {
	Side string // "buy" or "sell", lowercased
	Size float64
}

// BookLevel is one resting order-book level from a depth snapshot.
type BookLevel struct {
	Side  string // "buy" or "sell", lowercased
	Price float64
	Size  float64
}

// toFloat coerces the mixed string/number values Bybit payloads carry.
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case float64:
		return val
	case json.Number:
		f, _ := val.Float64()
		return f
	default:
		return 0
	}
}

// unwrapList peels the layers Bybit has been observed to wrap list payloads
// in: a {"list": ...} object, a double-encoded JSON string, or the bare
// array itself. Returns the raw entries array, or nil when nothing usable
// is present.
func unwrapList(raw json.RawMessage) []json.RawMessage {
	for depth := 0; depth < 3 && len(raw) > 0; depth++ {
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" || trimmed == "null" {
			return nil
		}
		switch trimmed[0] {
		case '[':
			var entries []json.RawMessage
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil
			}
			return entries
		case '{':
			var wrapper struct {
				List json.RawMessage `json:"list"`
			}
			if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.List) == 0 {
				return nil
			}
			raw = wrapper.List
		case '"':
			var inner string
			if err := json.Unmarshal(raw, &inner); err != nil {
				return nil
			}
			raw = json.RawMessage(inner)
		default:
			return nil
		}
	}
	return nil
}

// decodeLevelEntry accepts a book level expressed either as a tuple
// [side, price, size] or as a keyed record with side and size/qty fields.
// The second return is false for entries that cannot be understood.
func decodeLevelEntry(raw json.RawMessage) (BookLevel, bool) {
	var tuple []interface{}
	if err := json.Unmarshal(raw, &tuple); err == nil {
		if len(tuple) < 3 {
			return BookLevel{}, false
		}
		side, ok := tuple[0].(string)
		if !ok {
			return BookLevel{}, false
		}
		return BookLevel{
			Side:  strings.ToLower(side),
			Price: toFloat(tuple[1]),
			Size:  toFloat(tuple[2]),
		}, true
	}

	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return BookLevel{}, false
	}
	side, _ := record["side"].(string)
	if side == "" {
		return BookLevel{}, false
	}
	size, ok := record["size"]
	if !ok {
		size = record["qty"]
	}
	return BookLevel{
		Side:  strings.ToLower(side),
		Price: toFloat(record["price"]),
		Size:  toFloat(size),
	}, true
}

// decodeTradeEntry parses one recent-trade record, tolerating size/qty
// field variants. Unknown shapes are rejected, not fatal.
func decodeTradeEntry(raw json.RawMessage) (Trade, bool) {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return Trade{}, false
	}
	side, _ := record["side"].(string)
	if side == "" {
		return Trade{}, false
	}
	size, ok := record["size"]
	if !ok {
		size = record["qty"]
	}
	return Trade{Side: strings.ToLower(side), Size: toFloat(size)}, true
}
