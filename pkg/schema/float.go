// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"math"
	"strconv"
)

// A custom float type is used so that (Un)MarshalJSON can be
// overloaded and NaN can stand in for "missing" without putting every
// sample behind a pointer.
type Float float64

// NaN is the canonical missing-value marker. Never substitute zero.
var NaN Float = Float(math.NaN())

func (f Float) IsNaN() bool {
	return math.IsNaN(float64(f))
}

// NaN serializes to `null`.
func (f Float) MarshalJSON() ([]byte, error) {
	if f.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// `null` unserializes to NaN.
func (f *Float) UnmarshalJSON(input []byte) error {
	s := string(input)
	if s == "null" {
		*f = NaN
		return nil
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(val)
	return nil
}
