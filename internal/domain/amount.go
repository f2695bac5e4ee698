package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// amountBits is the width of every ledger quantity. Reserves and balances are
// tracked at 128-bit precision; transfers are narrowed to 64 bits at the edge.
const amountBits = 128

// Amount is an unsigned 128-bit ledger quantity. The zero value is 0.
// All arithmetic is checked and fails instead of wrapping.
type Amount struct {
	v uint256.Int
}

func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 string. Values wider than 128 bits are rejected.
func ParseAmount(raw string) (Amount, error) {
	var a Amount
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
		return Amount{}, fmt.Errorf("%w: amount %q", ErrInvalidInput, raw)
	}
	if err := a.v.SetFromDecimal(raw); err != nil {
		return Amount{}, fmt.Errorf("%w: amount %q", ErrInvalidInput, raw)
	}
	if a.v.BitLen() > amountBits {
		return Amount{}, fmt.Errorf("%w: amount %q exceeds 128 bits", ErrArithmeticOverflow, raw)
	}
	return a, nil
}

func MustParseAmount(raw string) Amount {
	a, err := ParseAmount(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

func (a Amount) GreaterThan(b Amount) bool { return a.v.Gt(&b.v) }

func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

func (a Amount) String() string { return a.v.Dec() }

func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow || out.v.BitLen() > amountBits {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, a, b)
	}
	return out, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrArithmeticOverflow, a, b)
	}
	return out, nil
}

func (a Amount) Mul(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.MulOverflow(&a.v, &b.v); overflow || out.v.BitLen() > amountBits {
		return Amount{}, fmt.Errorf("%w: %s * %s", ErrArithmeticOverflow, a, b)
	}
	return out, nil
}

// Div truncates toward zero.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.IsZero() {
		return Amount{}, fmt.Errorf("%w: %s / 0", ErrArithmeticOverflow, a)
	}
	var out Amount
	out.v.Div(&a.v, &b.v)
	return out, nil
}

// Uint64 narrows the amount to the 64-bit transfer boundary.
func (a Amount) Uint64() (uint64, error) {
	if !a.v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountTooLarge, a)
	}
	return a.v.Uint64(), nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var n uint64
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return fmt.Errorf("%w: amount must be a decimal string", ErrInvalidInput)
		}
		*a = NewAmount(n)
		return nil
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as NUMERIC(39,0).
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.scanDecimal(v)
	case []byte:
		return a.scanDecimal(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("scan amount: negative value %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}

func (a *Amount) scanDecimal(raw string) error {
	// NUMERIC columns may come back with a trailing scale such as "100.0".
	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		if strings.Trim(raw[dot+1:], "0") != "" {
			return fmt.Errorf("scan amount: fractional value %q", raw)
		}
		raw = raw[:dot]
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = parsed
	return nil
}
