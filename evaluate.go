// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import "math"

// InputChannels and OutputChannels report the device-space vector
// lengths [Pipeline.EvalFloat] expects and returns.
func (pl *Pipeline) InputChannels() int  { return pl.inCount }
func (pl *Pipeline) OutputChannels() int { return pl.outCount }

// EvalFloat runs one device-space vector through the compiled stage
// list. in must have exactly [Pipeline.InputChannels] entries, each
// normalised to [0, 1]; for Lab endpoints that is L/100, (a+128)/255
// and (b+128)/255, on input and on output alike (callers working
// directly in Lab units should use [Pipeline.EvalObject] instead).
// The input is never mutated.
func (pl *Pipeline) EvalFloat(in []float64) ([]float64, error) {
	if len(in) != pl.inCount {
		return nil, newTransformError(TransformErrorWrongChannelCount,
			"expected %d input channels, got %d", pl.inCount, len(in))
	}

	v := make([]float64, len(in))
	copy(v, in)

	for _, s := range pl.stages {
		v = s.apply(v)
	}

	if len(v) != pl.outCount {
		return nil, newTransformError(TransformErrorWrongChannelCount,
			"pipeline produced %d channels, expected %d", len(v), pl.outCount)
	}
	return v, nil
}

// ObjectField names one component of a named-field colour record.
type ObjectField string

// Field names used by [ObjectRecord]. The *_f variants carry values
// already scaled to [0,1] rather than the conventional integer ranges
// of their plain counterparts.
const (
	FieldL ObjectField = "L"
	FieldA ObjectField = "a"
	FieldB ObjectField = "b"

	FieldX ObjectField = "X"
	FieldY ObjectField = "Y"
	FieldZ ObjectField = "Z"

	FieldR ObjectField = "R"
	FieldG ObjectField = "G"
	FieldBlue ObjectField = "B"
	FieldRf ObjectField = "R_f"
	FieldGf ObjectField = "G_f"
	FieldBf ObjectField = "B_f"

	FieldC  ObjectField = "C"
	FieldM  ObjectField = "M"
	// Yellow shares the "Y" key with CIE Y above; the terminal colour
	// space (CMYK vs. XYZ) disambiguates which one is meant, and the
	// two are never present at once.
	FieldK  ObjectField = "K"
	FieldCf ObjectField = "C_f"
	FieldMf ObjectField = "M_f"
	FieldYf ObjectField = "Y_f"
	FieldKf ObjectField = "K_f"
)

// ObjectRecord is a named-field colour value ("objectFloat" format).
// The field set in use is implied by whichever
// keys are present; [Pipeline.EvalObject] infers it from the source
// profile's colour space.
type ObjectRecord map[ObjectField]float64

// EvalObject runs a named-field record through the pipeline,
// converting to and from the plain device vector [Pipeline.EvalFloat]
// expects using the source and terminal profiles' colour spaces to
// choose field names.
func (pl *Pipeline) EvalObject(in ObjectRecord) (ObjectRecord, error) {
	vec, err := objectToVector(in, pl.first)
	if err != nil {
		return nil, err
	}
	out, err := pl.EvalFloat(vec)
	if err != nil {
		return nil, err
	}
	return vectorToObject(out, pl.last), nil
}

func objectToVector(rec ObjectRecord, p *Profile) ([]float64, error) {
	switch p.Kind {
	case KindLab:
		lab := normaliseLab([]float64{rec[FieldL], rec[FieldA], rec[FieldB]})
		return lab, nil
	case KindGray:
		if v, ok := rec[FieldRf]; ok {
			return []float64{v}, nil
		}
		return []float64{rec[FieldR] / 255.0}, nil
	case KindRGBMatrix, KindRGBLut:
		if vf, ok := rec[FieldRf]; ok {
			return []float64{vf, rec[FieldGf], rec[FieldBf]}, nil
		}
		return []float64{rec[FieldR] / 255.0, rec[FieldG] / 255.0, rec[FieldBlue] / 255.0}, nil
	case KindCMYK:
		if vf, ok := rec[FieldCf]; ok {
			return []float64{vf, rec[FieldMf], rec[FieldYf], rec[FieldKf]}, nil
		}
		return []float64{rec[FieldC] / 255.0, rec[FieldM] / 255.0, rec[FieldY] / 255.0, rec[FieldK] / 255.0}, nil
	default:
		return nil, newTransformError(TransformErrorTypeMismatch, "no object field mapping for kind %s", p.Kind)
	}
}

func vectorToObject(v []float64, p *Profile) ObjectRecord {
	switch p.Kind {
	case KindLab:
		lab := denormaliseLab(v)
		return ObjectRecord{FieldL: lab[0], FieldA: lab[1], FieldB: lab[2]}
	case KindGray:
		return ObjectRecord{FieldRf: v[0], FieldR: v[0] * 255.0}
	case KindRGBMatrix, KindRGBLut:
		return ObjectRecord{
			FieldRf: v[0], FieldGf: v[1], FieldBf: v[2],
			FieldR: v[0] * 255.0, FieldG: v[1] * 255.0, FieldBlue: v[2] * 255.0,
		}
	case KindCMYK:
		return ObjectRecord{
			FieldCf: v[0], FieldMf: v[1], FieldYf: v[2], FieldKf: v[3],
			FieldC: v[0] * 255.0, FieldM: v[1] * 255.0, FieldY: v[2] * 255.0, FieldK: v[3] * 255.0,
		}
	default:
		return nil
	}
}

// Int8Options controls [Pipeline.EvalInt8] rounding.
type Int8Options struct {
	// RoundOutput rounds to the nearest integer; otherwise the value
	// is truncated towards zero.
	RoundOutput bool
	// Precision keeps this many decimal places before the final
	// round/truncate step (0 means round/truncate the raw [0,255]
	// value directly).
	Precision int
}

// EvalInt8 runs one pixel of clamped 8-bit device values through the
// pipeline, converting to [0,1] floats, evaluating, then converting
// back to clamped bytes per opts.
func (pl *Pipeline) EvalInt8(in []byte, opts Int8Options) ([]byte, error) {
	if len(in) != pl.inCount {
		return nil, newTransformError(TransformErrorWrongChannelCount,
			"expected %d input channels, got %d", pl.inCount, len(in))
	}

	vec := make([]float64, len(in))
	for i, b := range in {
		vec[i] = float64(b) / 255.0
	}

	out, err := pl.EvalFloat(vec)
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(out))
	for i, v := range out {
		result[i] = encodeInt8(v, opts)
	}
	return result, nil
}

func encodeInt8(v float64, opts Int8Options) byte {
	scaled := v * 255.0
	if opts.Precision > 0 {
		mult := math.Pow(10, float64(opts.Precision))
		scaled = math.Round(scaled*mult) / mult
	}
	var rounded float64
	if opts.RoundOutput {
		rounded = math.Round(scaled)
	} else {
		rounded = math.Trunc(scaled)
	}
	if rounded < 0 {
		return 0
	}
	if rounded > 255 {
		return 255
	}
	return byte(rounded)
}
