package domain

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Review is a single review as returned by /api/reviews/product/{id}.
type Review struct {
	Rating    any    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Stars returns the rating as a number when it has one.
func (r Review) Stars() (float64, bool) {
	return toNumber(r.Rating)
}

// ReviewPayload is the review response as sent. Its fields keep the raw
// JSON values so the summary can apply loose number rules.
type ReviewPayload struct {
	count    any
	hasCount bool
	reviews  []any
}

// UnmarshalJSON never rejects well-formed JSON: a payload that is not an
// object, or whose reviews field is not an array, yields no reviews.
func (p *ReviewPayload) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ReviewPayload{}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	p.count, p.hasCount = obj["count"]
	if list, ok := obj["reviews"].([]any); ok {
		p.reviews = list
	}
	return nil
}

// ReviewSummary is the reduced review payload.
type ReviewSummary struct {
	Count   float64  `json:"count"`
	Average *float64 `json:"average"`
	Reviews []Review `json:"reviews"`
}

// EmptyReviewSummary is used whenever review data is unavailable.
func EmptyReviewSummary() ReviewSummary {
	return ReviewSummary{Reviews: []Review{}}
}

// SummarizeReviews reduces a review payload to its count and average.
//
// Count is the declared count when it reads as a finite number, else the
// number of reviews. Average is the sum of numeric ratings over the number of
// reviews, rounded half-up to one decimal. It is nil when there are no
// reviews, when the rating sum is not positive, or when the rounded average
// is exactly zero.
func SummarizeReviews(payload ReviewPayload) ReviewSummary {
	count := float64(len(payload.reviews))
	if payload.hasCount {
		if v, ok := toNumber(payload.count); ok {
			count = v
		}
	}

	if len(payload.reviews) == 0 {
		return ReviewSummary{Count: count, Reviews: []Review{}}
	}

	reviews := make([]Review, len(payload.reviews))
	var total float64
	for i, raw := range payload.reviews {
		obj, _ := raw.(map[string]any)
		if obj == nil {
			continue
		}
		r := Review{Rating: obj["rating"]}
		r.Comment, _ = obj["comment"].(string)
		r.CreatedAt, _ = obj["created_at"].(string)
		reviews[i] = r

		if v, ok := toNumber(r.Rating); ok {
			total += v
		}
	}

	summary := ReviewSummary{Count: count, Reviews: reviews}
	if total > 0 {
		if avg := roundOneDecimal(total / float64(len(reviews))); avg != 0 {
			summary.Average = &avg
		}
	}
	return summary
}

// toNumber converts a decoded JSON value the way a loose numeric cast does:
// null is 0, booleans are 0 or 1, numeric strings parse (blank is 0), and a
// single-element array converts its element. It reports false for anything
// that does not yield a finite number.
func toNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = x
	case json.Number:
		var err error
		if f, err = x.Float64(); err != nil {
			return 0, false
		}
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		var ok bool
		if f, ok = parseNumericString(x); !ok {
			return 0, false
		}
	case []any:
		switch len(x) {
		case 0:
			return 0, true
		case 1:
			if _, isBool := x[0].(bool); isBool {
				return 0, false
			}
			return toNumber(x[0])
		default:
			return 0, false
		}
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if strings.ContainsRune(s, '_') {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			return float64(n), err == nil
		}
	}
	// ParseFloat also accepts "inf" and "nan"; both are rejected as
	// non-finite by the caller.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// roundOneDecimal rounds a positive value to one decimal, resolving exact
// ties upwards. The scaling is done in exact arithmetic so values such as
// 0.15, which sit just below the tie in binary, still round down.
func roundOneDecimal(x float64) float64 {
	f := new(big.Float).SetPrec(512).SetFloat64(x)
	f.Mul(f, big.NewFloat(10))
	f.Add(f, big.NewFloat(0.5))
	n, _ := f.Int(nil)
	r, _ := new(big.Float).SetInt(n).Float64()
	return r / 10
}
