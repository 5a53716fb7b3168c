package token

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryPrecision точность exp в выпускаемых токенах
const ExpiryPrecision = time.Millisecond

// Expiry значение claim exp с дробными секундами.
// jwt.NumericDate читает дробную часть через float64 и теряет миллисекунды,
// поэтому exp разбирается из десятичной записи напрямую.
type Expiry struct {
	time.Time
}

// NewExpiry обрезает t до ExpiryPrecision
func NewExpiry(t time.Time) *Expiry {
	return &Expiry{t.Truncate(ExpiryPrecision)}
}

func (e Expiry) MarshalJSON() ([]byte, error) {
	t := e.Truncate(ExpiryPrecision)
	millis := t.Nanosecond() / int(time.Millisecond)
	if millis == 0 {
		return []byte(strconv.FormatInt(t.Unix(), 10)), nil
	}
	return []byte(fmt.Sprintf("%d.%03d", t.Unix(), millis)), nil
}

func (e *Expiry) UnmarshalJSON(b []byte) error {
	var number json.Number
	if err := json.Unmarshal(b, &number); err != nil {
		return fmt.Errorf("could not parse exp: %w", err)
	}

	whole, frac, _ := strings.Cut(number.String(), ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fmt.Errorf("could not parse exp seconds: %w", err)
	}

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return fmt.Errorf("could not parse exp fraction: %w", err)
		}
	}

	e.Time = time.Unix(sec, nsec)
	return nil
}

// numericDate отдает exp валидатору jwt без потери точности
func (e *Expiry) numericDate() *jwt.NumericDate {
	if e == nil {
		return nil
	}
	return &jwt.NumericDate{Time: e.Time}
}
