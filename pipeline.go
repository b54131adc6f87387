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

import "sync"

// pcsKind tags the representation a stage's output vector is in, so
// the compiler knows whether a bridge stage is needed before the next
// device step.
type pcsKind int

const (
	pcsNone pcsKind = iota
	pcsXYZ
	pcsLabV2
	pcsLabV4
)

// stage is one link of a compiled [Pipeline]. apply transforms a
// device-or-PCS vector in place conceptually (it receives and returns
// a fresh slice; callers own both).
type stage struct {
	name  string
	apply func(in []float64) []float64
}

// Pipeline is the compiled form of a chain of (Profile, intent) steps,
// ready for per-pixel evaluation.
type Pipeline struct {
	stages   []stage
	first    *Profile
	last     *Profile
	inCount  int
	outCount int

	accelerator     *deviceLUT // built lazily by BuildAccelerator
	acceleratorOnce sync.Once
	acceleratorErr  error
}

// Step pairs a profile with the rendering intent to use when stepping
// through it in a [Compile] chain.
type Step struct {
	Profile *Profile
	Intent  RenderingIntent
}

// Compile validates and assembles a chain of profiles and intents
// into an executable [Pipeline]. The chain alternates Profile, intent,
// Profile, ..., Profile (so its length is always odd, in terms of the
// flattened sequence) and is accepted here already split into pairs:
// source is the first profile, and each Step in steps gives the
// rendering intent used to leave the previous profile and the profile
// to land in.
func Compile(source *Profile, steps ...Step) (*Pipeline, error) {
	if source == nil {
		return nil, newPipelineError(PipelineErrorNotAProfile, "source is nil")
	}
	if !source.Loaded {
		return nil, newPipelineError(PipelineErrorNotLoaded, "source profile is not loaded")
	}
	if len(steps) == 0 {
		return nil, newPipelineError(PipelineErrorChainTooShort, "chain needs at least one step")
	}

	p := &Pipeline{first: source, inCount: channelsForColorSpace(source.ColorSpace)}

	cur := source
	for _, step := range steps {
		if step.Profile == nil {
			return nil, newPipelineError(PipelineErrorNotAProfile, "step profile is nil")
		}
		if !step.Profile.Loaded {
			return nil, newPipelineError(PipelineErrorNotLoaded, "step profile is not loaded")
		}
		if step.Intent > AbsoluteColorimetric {
			return nil, newPipelineError(PipelineErrorIntentOutOfRange, "intent %d out of range", step.Intent)
		}

		triple, err := compileTriple(cur, step.Intent, step.Profile)
		if err != nil {
			return nil, err
		}
		p.stages = append(p.stages, triple...)
		cur = step.Profile
	}

	p.last = cur
	p.outCount = channelsForColorSpace(cur.ColorSpace)
	return p, nil
}

func channelsForColorSpace(cs ColorSpace) int {
	if n := cs.NumComponents(); n > 0 {
		return n
	}
	return 3
}

// compileTriple emits the five-step sequence for one adjacent
// (A, intent, B) triple: device_A -> PCS, absolute-in scaling, PCS
// bridge, absolute-out scaling, PCS -> device_B.
func compileTriple(a *Profile, intent RenderingIntent, b *Profile) ([]stage, error) {
	var stages []stage

	toPCS, aPCS, err := deviceToPCSStage(a, intent)
	if err != nil {
		return nil, err
	}
	if toPCS != nil {
		stages = append(stages, stage{name: "device->pcs", apply: toPCS})
	}

	if intent == AbsoluteColorimetric {
		scale := a.AbsoluteAdaptationIn
		stages = append(stages, stage{
			name: "absolute-in",
			apply: func(in []float64) []float64 {
				return scaleVec3(in, scale)
			},
		})
	}

	bPCS := pcsOf(b)
	if bridge := pcsBridge(aPCS, bPCS); bridge != nil {
		stages = append(stages, stage{name: "pcs-bridge", apply: bridge})
	}

	if intent == AbsoluteColorimetric {
		scale := b.AbsoluteAdaptationOut
		stages = append(stages, stage{
			name: "absolute-out",
			apply: func(in []float64) []float64 {
				return scaleVec3(in, scale)
			},
		})
	}

	fromPCS, err := pcsToDeviceStage(b, intent)
	if err != nil {
		return nil, err
	}
	if fromPCS != nil {
		stages = append(stages, stage{name: "pcs->device", apply: fromPCS})
	}

	return stages, nil
}

func scaleVec3(in []float64, s [3]float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	for i := 0; i < 3 && i < len(out); i++ {
		out[i] *= s[i]
	}
	return out
}

// pcsOf returns the native PCS representation a profile's device->PCS
// step produces: v2 profiles encode Lab on the v2 scale, v4 on the v4
// scale; XYZ PCS has no version split.
func pcsOf(p *Profile) pcsKind {
	if p.PCS == PCSLabSpace {
		if p.Version>>24 == 2 {
			return pcsLabV2
		}
		return pcsLabV4
	}
	return pcsXYZ
}

// pcsBridge returns a conversion function when the two adjacent
// profiles disagree on PCS representation, or nil if no bridge is
// needed (a matching PCS on both sides elides the stage entirely).
func pcsBridge(from, to pcsKind) func([]float64) []float64 {
	if from == to {
		return nil
	}
	switch {
	case from == pcsXYZ && to == pcsLabV4:
		return func(in []float64) []float64 {
			L, a, b := xyzToLab(in[0], in[1], in[2], d50WhitePoint)
			return normaliseLab([]float64{L, a, b})
		}
	case from == pcsXYZ && to == pcsLabV2:
		return func(in []float64) []float64 {
			L, a, b := xyzToLab(in[0], in[1], in[2], d50WhitePoint)
			return v4LabToV2(normaliseLab([]float64{L, a, b}))
		}
	case from == pcsLabV4 && to == pcsXYZ:
		return func(in []float64) []float64 {
			lab := denormaliseLab(in)
			X, Y, Z := labToXYZ(lab, d50WhitePoint)
			return []float64{X, Y, Z}
		}
	case from == pcsLabV2 && to == pcsXYZ:
		return func(in []float64) []float64 {
			lab := denormaliseLab(v2LabToV4(in))
			X, Y, Z := labToXYZ(lab, d50WhitePoint)
			return []float64{X, Y, Z}
		}
	case from == pcsLabV2 && to == pcsLabV4:
		return v2LabToV4
	case from == pcsLabV4 && to == pcsLabV2:
		return v4LabToV2
	default:
		return nil
	}
}

// deviceToPCSStage builds the device->PCS function for a profile under
// a given intent, along with the PCS kind it leaves the vector in.
// Table profiles reuse the relative A2B table for absolute intent (the
// scaling is applied separately); RGBMatrix profiles run TRC then
// matrix multiply; Gray profiles run the kTRC against the PCS
// illuminant's Y; Lab virtual profiles pass through untouched.
func deviceToPCSStage(p *Profile, intent RenderingIntent) (func([]float64) []float64, pcsKind, error) {
	kind := pcsOf(p)

	switch p.Kind {
	case KindLab:
		return nil, kind, nil

	case KindGray:
		curve := p.GrayTRC
		return func(in []float64) []float64 {
			y := curve.Evaluate(in[0])
			return []float64{y * p.PCSIlluminant[0], y * p.PCSIlluminant[1], y * p.PCSIlluminant[2]}
		}, pcsXYZ, nil

	case KindRGBMatrix:
		trc := p.RGBTRC
		matrix := p.RGBMatrix
		return func(in []float64) []float64 {
			lin := [3]float64{trc[0].Evaluate(in[0]), trc[1].Evaluate(in[1]), trc[2].Evaluate(in[2])}
			xyz := mulMatrix3x3Vec(matrix, lin)
			return []float64{xyz[0], xyz[1], xyz[2]}
		}, pcsXYZ, nil

	case KindRGBLut, KindCMYK, KindDuo:
		lut := p.a2bForIntent(intent)
		if lut == nil {
			return nil, kind, newPipelineError(PipelineErrorNotAProfile, "%s has no usable A2B table", p.Description)
		}
		return func(in []float64) []float64 {
			return lut.Apply(in)
		}, kind, nil

	default:
		return nil, kind, newPipelineError(PipelineErrorNotAProfile, "profile has unsupported kind %s", p.Kind)
	}
}

func pcsToDeviceStage(p *Profile, intent RenderingIntent) (func([]float64) []float64, error) {
	switch p.Kind {
	case KindLab:
		return nil, nil

	case KindGray:
		inv := p.GrayTRCInv
		return func(in []float64) []float64 {
			y := in[1] / p.PCSIlluminant[1]
			return []float64{inv.Invert(y)}
		}, nil

	case KindRGBMatrix:
		inv := p.RGBMatrixInv
		trcInv := p.RGBTRCInv
		return func(in []float64) []float64 {
			xyz := [3]float64{in[0], in[1], in[2]}
			lin := mulMatrix3x3Vec(inv, xyz)
			return []float64{
				trcInv[0].Invert(lin[0]),
				trcInv[1].Invert(lin[1]),
				trcInv[2].Invert(lin[2]),
			}
		}, nil

	case KindRGBLut, KindCMYK, KindDuo:
		lut := p.b2aForIntent(intent)
		if lut == nil {
			return nil, newPipelineError(PipelineErrorNotAProfile, "%s has no usable B2A table", p.Description)
		}
		return func(in []float64) []float64 {
			return lut.Apply(in)
		}, nil

	default:
		return nil, newPipelineError(PipelineErrorNotAProfile, "profile has unsupported kind %s", p.Kind)
	}
}
