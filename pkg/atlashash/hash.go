// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package atlashash implements the trivariate identity hash: a pure,
// deterministic 48-character Base-96 string composed of three 16-character
// Murmur3-derived segments (SCH, CUID, UUID). No floating point, no
// platform-dependent width assumptions; the only non-pure input a caller can
// introduce is a timestamp, which every entry point here takes explicitly so
// tests stay deterministic.
package atlashash

import "fmt"

// alphabet is the canonical 96-glyph Base-96 charset, in the one fixed
// ordering the hash engine emits and accepts. Declared as an unexported
// array so callers outside the package cannot mutate the glyphs.
//
// The 94 alphanumeric-and-punctuation glyphs below are every printable ASCII
// character except space: the full set the original trivariate-hash source
// labels "96 characters" while only ever listing 94 of them. Space is the
// only other printable ASCII glyph available, which still leaves the
// alphabet one glyph short of 96 with no ASCII candidate left to add, so the
// 96th position is filled with a non-ASCII printable rune (SECTION SIGN,
// U+00A7) rather than silently zero-filling to NUL. Because of that one
// rune, alphabet entries are runes, not bytes, and every length/indexing
// operation in this file counts runes.
var alphabet = [96]rune{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'!', '#', '$', '%', '&', '(', ')', '*', '+', ',', '-', '.', '/',
	':', ';', '<', '=', '>', '?', '@', '[', ']', '^', '_', '{', '|',
	'}', '~', '`', '"', '\'', '\\',
	' ', '§',
}

// Seeds, fixed by the spec. Never overridden by callers.
const (
	seedSCH  uint64 = 0x5BD1E995
	seedCUID uint64 = 0x1B873593
	seedUUID uint64 = 0xDEADBEEF

	mulMix1   uint64 = 0xCC9E2D51
	mulMix2   uint64 = 0xC2B2AE35
	mulFinal  uint64 = 0x85EBCA6B
	segmentLen       = 16
	totalLen         = 3 * segmentLen

	unicodeBase  rune = 0xE000
	unicodeRange rune = 0x9FF
)

// GraduatedLevel is a coarse five-bucket quantization of a [0,1] score used
// when folding environment masks into a CUID's mask tail.
type GraduatedLevel byte

const (
	LevelCritical GraduatedLevel = iota
	LevelDegraded
	LevelNominal
	LevelEnhanced
	LevelOptimal
)

// GraduatedLevelFromValue buckets v into one of the five levels.
func GraduatedLevelFromValue(v float64) GraduatedLevel {
	switch {
	case v <= 0.2:
		return LevelCritical
	case v <= 0.4:
		return LevelDegraded
	case v <= 0.6:
		return LevelNominal
	case v <= 0.8:
		return LevelEnhanced
	default:
		return LevelOptimal
	}
}

// Symbol returns the single-glyph encoding of a graduated level.
func (l GraduatedLevel) Symbol() byte {
	switch l {
	case LevelCritical:
		return '!'
	case LevelDegraded:
		return '#'
	case LevelNominal:
		return '='
	case LevelEnhanced:
		return '+'
	default:
		return '~'
	}
}

// EnvironmentMasks are the fourteen environmental fields folded into a
// CUID's mask tail. String fields are truncated to their documented width
// before encoding; Ob is encoded as a raw decimal byte rather than a
// graduated level.
type EnvironmentMasks struct {
	WX, TF, OB, TH, SR, GM, DE, RP, RE, RS, BW float64
	JU                                         string // truncated to 2 chars
	JS                                         string // truncated to 3 chars
	RO                                         string // truncated to 2 chars
}

// DefaultEnvironmentMasks returns a nominal mask set: every float field at
// 0.5 (LevelNominal), every string field filled with '-' to its width.
func DefaultEnvironmentMasks() EnvironmentMasks {
	return EnvironmentMasks{
		WX: 0.5, TF: 0.5, OB: 0.5, TH: 0.5, SR: 0.5, GM: 0.5, DE: 0.5,
		RP: 0.5, RE: 0.5, RS: 0.5, BW: 0.5,
		JU: "--", JS: "---", RO: "--",
	}
}

func truncate(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + string(make([]byte, n-len(s)))
}

// encodeMaskTail serializes masks in the exact fixed field order the spec
// requires: WX, TF, OB, JU, TH, SR, GM, DE, JS, RP, RE, RS, BW, RO.
func encodeMaskTail(m EnvironmentMasks) string {
	lvl := func(v float64) byte { return GraduatedLevelFromValue(v).Symbol() }
	ob := byte(m.OB * 255)
	return fmt.Sprintf(
		"WX%cTF%cOB%dJU%sTH%cSR%cGM%cDE%cJS%sRP%cRE%cRS%cBW%cRO%s",
		lvl(m.WX), lvl(m.TF), ob, truncate(m.JU, 2),
		lvl(m.TH), lvl(m.SR), lvl(m.GM), lvl(m.DE),
		truncate(m.JS, 3), lvl(m.RP), lvl(m.RE), lvl(m.RS), lvl(m.BW),
		truncate(m.RO, 2),
	)
}

// hashToBase96 takes the low digits of acc in base 96, charset-indexed, for
// length positions, padding with the charset's first glyph if acc exhausts
// before length is reached.
func hashToBase96(acc uint64, length int) string {
	out := make([]rune, length)
	for i := 0; i < length; i++ {
		out[i] = alphabet[acc%96]
		acc /= 96
	}
	return string(out)
}

func murmurMix(input []byte, seed, mul uint64) uint64 {
	acc := seed
	for i, b := range input {
		acc = acc*mul + uint64(b) + uint64(i)
	}
	return acc
}

func murmurFinalize(acc uint64) uint64 {
	acc ^= acc >> 16
	acc *= mulFinal
	acc ^= acc >> 13
	acc *= mulMix2
	acc ^= acc >> 16
	return acc
}

// GenerateSCH produces the first 16-character segment: a semantic envelope
// derived from primitiveType and content.
func GenerateSCH(content, primitiveType string) string {
	input := fmt.Sprintf("%s:%s:%d", primitiveType, content, seedSCH)
	acc := murmurMix([]byte(input), seedSCH, mulMix1)
	return hashToBase96(acc, segmentLen)
}

// GenerateCUID produces the middle 16-character segment: spatio-temporal
// context, optionally tailed with an environment-mask encoding. timestampUnixSec
// must be supplied by the caller for deterministic output; production
// callers typically pass time.Now().Unix().
func GenerateCUID(context string, timestampUnixSec int64, masks *EnvironmentMasks) string {
	maskTail := ""
	if masks != nil {
		maskTail = encodeMaskTail(*masks)
	}
	input := fmt.Sprintf("%s:%d:%s", context, timestampUnixSec, maskTail)
	acc := murmurMix([]byte(input), seedCUID, mulMix2)
	return hashToBase96(acc, segmentLen)
}

// GenerateUUID produces the last 16-character segment. Not an RFC 4122
// UUID: a Murmur3-finalized mix of content and context, concatenated without
// a separator.
func GenerateUUID(content, context string) string {
	combined := content + context
	acc := seedUUID
	for _, b := range []byte(combined) {
		acc += uint64(b)
	}
	acc = murmurFinalize(acc)
	return hashToBase96(acc, segmentLen)
}

// GenerateTrivariate composes SCH, CUID, and UUID into the full 48-character
// identity. timestampUnixSec is the only non-pure input; callers needing
// bit-for-bit reproducibility across runs must fix it themselves.
func GenerateTrivariate(content, context, primitiveType string, timestampUnixSec int64, masks *EnvironmentMasks) string {
	sch := GenerateSCH(content, primitiveType)
	cuid := GenerateCUID(context, timestampUnixSec, masks)
	uuid := GenerateUUID(content, context)
	return sch + cuid + uuid
}

// CompressToUnicode projects each of the 48 characters of hash into the
// Private Use Area subrange U+E000..U+E9FF. Panics if hash is not exactly 48
// characters; callers should validate first if the input is untrusted.
func CompressToUnicode(hash string) []rune {
	runes := []rune(hash)
	if len(runes) != totalLen {
		panic("atlashash: CompressToUnicode requires a 48-character hash")
	}
	out := make([]rune, totalLen)
	for i, r := range runes {
		out[i] = unicodeBase + r%unicodeRange
	}
	return out
}

// Validate reports whether s is exactly 48 characters long and every
// character lies in the canonical Base-96 alphabet.
func Validate(s string) bool {
	runes := []rune(s)
	if len(runes) != totalLen {
		return false
	}
	for _, r := range runes {
		found := false
		for _, c := range alphabet {
			if r == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
