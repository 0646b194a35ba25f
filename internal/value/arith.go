package value

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rowlang/rowlang/internal/errors"
)

// binOp is a scalar binary operator lifted over arrays by broadcast.
type binOp func(a, b Value) (Value, error)

// broadcast applies op elementwise when either operand is a sequence.
// Sequence-op-sequence requires equal lengths; sequence-op-scalar repeats
// the scalar. Scalar-op-scalar falls through to op directly.
func broadcast(a, b Value, op binOp) (Value, error) {
	switch {
	case a.IsSequence() && b.IsSequence():
		as, bs := a.Items(), b.Items()
		if len(as) != len(bs) {
			return Value{}, errors.NewTypeError("array length mismatch: %d vs %d", len(as), len(bs))
		}
		out := make([]Value, len(as))
		for i := range as {
			r, err := op(as[i], bs[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return FromSlice(out), nil
	case a.IsSequence():
		as := a.Items()
		out := make([]Value, len(as))
		for i := range as {
			r, err := op(as[i], b)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return FromSlice(out), nil
	case b.IsSequence():
		bs := b.Items()
		out := make([]Value, len(bs))
		for i := range bs {
			r, err := op(a, bs[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return FromSlice(out), nil
	}
	return op(a, b)
}

// coerceNull substitutes zero of the partner's numeric kind for a null
// operand so that missing history participates in arithmetic as 0.
func coerceNull(a, b Value) (Value, Value) {
	if a.kind == KindNull {
		switch b.kind {
		case KindNumber:
			a = Num(0)
		case KindDecimal:
			a = Dec(decimal.Zero)
		}
	}
	if b.kind == KindNull {
		switch a.kind {
		case KindNumber:
			b = Num(0)
		case KindDecimal:
			b = Dec(decimal.Zero)
		}
	}
	return a, b
}

// Add implements +. Numbers and decimals add; strings concatenate.
func Add(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			return Num(a.num + b.num), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			return Dec(a.dec.Add(b.dec)), nil
		case a.kind == KindString && b.kind == KindString:
			return Str(a.str + b.str), nil
		}
		return Value{}, errors.NewTypeError("cannot add %s and %s", a.kind, b.kind)
	})
}

// Sub implements -.
func Sub(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			return Num(a.num - b.num), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			return Dec(a.dec.Sub(b.dec)), nil
		}
		return Value{}, errors.NewTypeError("cannot subtract %s from %s", b.kind, a.kind)
	})
}

// Mul implements *.
func Mul(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			return Num(a.num * b.num), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			return Dec(a.dec.Mul(b.dec)), nil
		}
		return Value{}, errors.NewTypeError("cannot multiply %s and %s", a.kind, b.kind)
	})
}

// Div implements /. Division by zero is a dedicated error, not a NaN.
func Div(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			if b.num == 0 {
				return Value{}, errors.NewZeroDivisionError()
			}
			return Num(a.num / b.num), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			if b.dec.IsZero() {
				return Value{}, errors.NewZeroDivisionError()
			}
			return Dec(a.dec.Div(b.dec)), nil
		}
		return Value{}, errors.NewTypeError("cannot divide %s by %s", a.kind, b.kind)
	})
}

// Mod implements %.
func Mod(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			if b.num == 0 {
				return Value{}, errors.NewZeroDivisionError()
			}
			return Num(math.Mod(a.num, b.num)), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			if b.dec.IsZero() {
				return Value{}, errors.NewZeroDivisionError()
			}
			return Dec(a.dec.Mod(b.dec)), nil
		}
		return Value{}, errors.NewTypeError("cannot take %s modulo %s", a.kind, b.kind)
	})
}

// Pow implements ^ (right-associative exponentiation).
func Pow(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		a, b = coerceNull(a, b)
		switch {
		case a.kind == KindNumber && b.kind == KindNumber:
			return Num(math.Pow(a.num, b.num)), nil
		case a.kind == KindDecimal && b.kind == KindDecimal:
			return Dec(a.dec.Pow(b.dec)), nil
		}
		return Value{}, errors.NewTypeError("cannot raise %s to %s", a.kind, b.kind)
	})
}

// Neg implements unary minus.
func Neg(v Value) (Value, error) {
	if v.IsSequence() {
		items := v.Items()
		out := make([]Value, len(items))
		for i, el := range items {
			r, err := Neg(el)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return FromSlice(out), nil
	}
	switch v.kind {
	case KindNumber:
		return Num(-v.num), nil
	case KindDecimal:
		return Dec(v.dec.Neg()), nil
	case KindNull:
		return Num(0), nil
	}
	return Value{}, errors.NewTypeError("cannot negate %s", v.kind)
}

// compare resolves an ordered comparison to -1, 0 or 1.
func compare(a, b Value) (int, error) {
	switch {
	case a.kind == KindNumber && b.kind == KindNumber:
		switch {
		case a.num < b.num:
			return -1, nil
		case a.num > b.num:
			return 1, nil
		}
		return 0, nil
	case a.kind == KindDecimal && b.kind == KindDecimal:
		return a.dec.Cmp(b.dec), nil
	case a.kind == KindString && b.kind == KindString:
		switch {
		case a.str < b.str:
			return -1, nil
		case a.str > b.str:
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.NewTypeError("cannot compare %s with %s", a.kind, b.kind)
}

// Gt implements >.
func Gt(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		c, err := compare(a, b)
		if err != nil {
			return Value{}, err
		}
		return Bool(c > 0), nil
	})
}

// Lt implements <.
func Lt(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		c, err := compare(a, b)
		if err != nil {
			return Value{}, err
		}
		return Bool(c < 0), nil
	})
}

// Gte implements >=.
func Gte(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		c, err := compare(a, b)
		if err != nil {
			return Value{}, err
		}
		return Bool(c >= 0), nil
	})
}

// Lte implements <=.
func Lte(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		c, err := compare(a, b)
		if err != nil {
			return Value{}, err
		}
		return Bool(c <= 0), nil
	})
}

// Eq implements ==. Deep equality; never errors, mismatched kinds are false.
func Eq(a, b Value) (Value, error) {
	if (a.IsSequence() || b.IsSequence()) && a.IsSequence() != b.IsSequence() {
		return broadcast(a, b, Eq)
	}
	return Bool(a.Equal(b)), nil
}

// Neq implements !=.
func Neq(a, b Value) (Value, error) {
	r, err := Eq(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(!r.Truthy()), nil
}

// And implements logical and over truthiness.
func And(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		return Bool(a.Truthy() && b.Truthy()), nil
	})
}

// Or implements logical or over truthiness.
func Or(a, b Value) (Value, error) {
	return broadcast(a, b, func(a, b Value) (Value, error) {
		return Bool(a.Truthy() || b.Truthy()), nil
	})
}

// Not implements logical negation over truthiness.
func Not(v Value) (Value, error) {
	if v.IsSequence() {
		items := v.Items()
		out := make([]Value, len(items))
		for i, el := range items {
			out[i] = Bool(!el.Truthy())
		}
		return FromSlice(out), nil
	}
	return Bool(!v.Truthy()), nil
}
