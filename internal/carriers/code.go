package carriers

import (
	"encoding/json"
	"strings"
)

// Code identifies a supported carrier. It is the only carrier enum in the
// module; models, services and handlers all share it.
type Code string

const (
	FedEx Code = "FEDEX"
	UPS   Code = "UPS"
	USPS  Code = "USPS"
)

var supported = []Code{FedEx, UPS, USPS}

// All returns every supported carrier code in canonical order.
func All() []Code {
	out := make([]Code, len(supported))
	copy(out, supported)
	return out
}

// ParseCode normalizes s and reports whether it names a supported carrier.
func ParseCode(s string) (Code, bool) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

func (c Code) Valid() bool {
	for _, s := range supported {
		if c == s {
			return true
		}
	}
	return false
}

func (c Code) String() string { return string(c) }

// UnmarshalJSON accepts carrier codes in any case.
func (c *Code) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = Code(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}
