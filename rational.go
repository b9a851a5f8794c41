//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"
	"math/big"
)

// Rational is an AVRational.
type Rational struct {
	Num int32
	Den int32
}

// NewRational returns num/den.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// Valid reports whether r has a positive denominator.
func (r Rational) Valid() bool {
	return r.Den > 0
}

// Float64 returns r as a float, or 0 when r is invalid.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns den/num.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts v from time base from to time base to, rounding to the
// nearest value with halves away from zero, like av_rescale_q.
func Rescale(v int64, from, to Rational) int64 {
	if !from.Valid() || !to.Valid() || to.Num == 0 {
		return v
	}
	num := new(big.Int).Mul(big.NewInt(v), big.NewInt(int64(from.Num)*int64(to.Den)))
	den := big.NewInt(int64(from.Den) * int64(to.Num))
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	half := new(big.Int).Rsh(den, 1)
	if num.Sign() >= 0 {
		num.Add(num, half)
	} else {
		num.Sub(num, half)
	}
	return num.Quo(num, den).Int64()
}
