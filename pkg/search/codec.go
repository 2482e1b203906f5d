package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Wire tags. A Result is encoded as {"<tag>": {"_0": <payload>}}, the shape
// stored in existing caches and expected by existing clients.
const (
	tagKeyword = "keyword"
	tagPackage = "package"
	payloadKey = "_0"
)

// ErrMalformedUnion is matched (via errors.Is) by every *DecodingError.
var ErrMalformedUnion = errors.New("malformed tagged union")

// DecodeFailure describes why a payload was rejected.
type DecodeFailure int

const (
	// FailureNotObject means the payload is not a JSON object.
	FailureNotObject DecodeFailure = iota + 1
	// FailureKeyCount means the top-level object does not hold exactly one key.
	FailureKeyCount
	// FailureUnknownTag means the single top-level key is not a known tag.
	FailureUnknownTag
	// FailureUnwrap means the tagged value is not {"_0": ...}.
	FailureUnwrap
	// FailurePayload means the wrapped payload does not decode.
	FailurePayload
)

func (f DecodeFailure) String() string {
	switch f {
	case FailureNotObject:
		return "not an object"
	case FailureKeyCount:
		return "invalid number of keys found, expected one"
	case FailureUnknownTag:
		return "unknown tag"
	case FailureUnwrap:
		return "invalid associated value container"
	case FailurePayload:
		return "invalid payload"
	default:
		return "unknown failure"
	}
}

// DecodingError reports a payload that is not a valid encoded Result.
type DecodingError struct {
	Reason DecodeFailure
	// Keys holds the offending keys, sorted, for key count, tag and unwrap
	// failures.
	Keys []string
	// Tag is the variant tag, when one was recognized.
	Tag string
	Err error
}

func (e *DecodingError) Error() string {
	var b strings.Builder
	b.WriteString("decoding search result: ")
	b.WriteString(e.Reason.String())
	if e.Reason == FailureKeyCount || e.Reason == FailureUnwrap || e.Reason == FailureUnknownTag {
		fmt.Fprintf(&b, " (%d keys: %s)", len(e.Keys), strings.Join(e.Keys, ", "))
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, " [tag %s]", e.Tag)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Is makes every DecodingError match ErrMalformedUnion.
func (e *DecodingError) Is(target error) bool {
	return target == ErrMalformedUnion
}

// EncodeResult returns the wire representation of r.
func EncodeResult(r Result) ([]byte, error) {
	var (
		tag     string
		payload any
	)
	switch r.kind {
	case KindKeyword:
		tag, payload = tagKeyword, r.keyword
	case KindPackage:
		tag, payload = tagPackage, r.pkg
	default:
		return nil, fmt.Errorf("encoding search result: no variant set")
	}
	return json.Marshal(map[string]map[string]any{
		tag: {payloadKey: payload},
	})
}

// DecodeResult parses the wire representation of a Result.
func DecodeResult(data []byte) (Result, error) {
	var top map[string]json.RawMessage
	if err := decodeObject(data, &top); err != nil {
		return Result{}, &DecodingError{Reason: FailureNotObject, Err: err}
	}
	if len(top) != 1 {
		return Result{}, &DecodingError{Reason: FailureKeyCount, Keys: sortedKeys(top)}
	}

	var (
		tag string
		raw json.RawMessage
	)
	for k, v := range top {
		tag, raw = k, v
	}
	if tag != tagKeyword && tag != tagPackage {
		return Result{}, &DecodingError{Reason: FailureUnknownTag, Keys: []string{tag}}
	}

	var nested map[string]json.RawMessage
	if err := decodeObject(raw, &nested); err != nil {
		return Result{}, &DecodingError{Reason: FailureUnwrap, Tag: tag, Err: err}
	}
	value, ok := nested[payloadKey]
	if !ok || len(nested) != 1 {
		return Result{}, &DecodingError{Reason: FailureUnwrap, Tag: tag, Keys: sortedKeys(nested)}
	}

	switch tag {
	case tagKeyword:
		var kw struct {
			Keyword *string `json:"keyword"`
		}
		if err := decodeObject(value, &kw); err != nil {
			return Result{}, &DecodingError{Reason: FailurePayload, Tag: tag, Err: err}
		}
		if kw.Keyword == nil {
			return Result{}, &DecodingError{Reason: FailurePayload, Tag: tag, Err: errors.New(`missing "keyword"`)}
		}
		return KeywordMatch(KeywordResult{Keyword: *kw.Keyword}), nil
	default:
		var pkg PackageResult
		if err := decodeObject(value, &pkg); err != nil {
			return Result{}, &DecodingError{Reason: FailurePayload, Tag: tag, Err: err}
		}
		return PackageMatch(pkg), nil
	}
}

// DecodeResults decodes a batch of payloads. A payload that fails to decode
// is skipped and its error recorded; the rest of the batch is unaffected.
// errs has one entry per payload, nil for those that decoded.
func DecodeResults(payloads []json.RawMessage) (results []Result, errs []error) {
	results = make([]Result, 0, len(payloads))
	errs = make([]error, len(payloads))
	for i, p := range payloads {
		r, err := DecodeResult(p)
		if err != nil {
			errs[i] = err
			continue
		}
		results = append(results, r)
	}
	return results, errs
}

// MarshalJSON encodes r in wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	return EncodeResult(r)
}

// UnmarshalJSON decodes r from wire form.
func (r *Result) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeResult(data)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// decodeObject rejects anything but a JSON object, including null.
func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("expected a JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
