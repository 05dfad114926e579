// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

// SkipField advances past one value of the given wire type starting at pos
// and returns the position just past it. An EGROUP tag at this level is a
// no-op (the caller is the outer SkipGroup that owns matching it); SGROUP
// delegates to SkipGroup using the field number the tag was read under.
func SkipField(buf []byte, pos int, num Number, typ Type) (int, error) {
	switch typ {
	case VarintType:
		_, n, err := ConsumeVarint(buf[pos:])
		if err != nil {
			return 0, err
		}
		return pos + n, nil
	case Fixed32Type:
		if len(buf)-pos < 4 {
			return 0, ErrEndOfStream
		}
		return pos + 4, nil
	case Fixed64Type:
		if len(buf)-pos < 8 {
			return 0, ErrEndOfStream
		}
		return pos + 8, nil
	case BytesType:
		l, n, err := ConsumeVarint(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
		if uint64(len(buf)-pos) < l {
			return 0, ErrEndOfStream
		}
		return pos + int(l), nil
	case StartGroupType:
		return skipGroup(buf, pos, num)
	case EndGroupType:
		return pos, nil
	default:
		return 0, ErrInvalidWireType
	}
}

// skipGroup consumes tag/value pairs starting at pos until it finds the
// EGROUP tag matching num, recursing into any nested SGROUP. A mismatched
// EGROUP (closing some other group number) is tolerated and skipped, per
// spec.md 4.A.
func skipGroup(buf []byte, pos int, num Number) (int, error) {
	for {
		if pos >= len(buf) {
			return 0, ErrEndOfStream
		}
		tagv, n, err := ConsumeVarint(buf[pos:])
		if err != nil {
			return 0, err
		}
		fnum, typ := DecodeTag(tagv)
		if fnum == 0 {
			return 0, ErrInvalidFieldNumber
		}
		pos += n

		if typ == EndGroupType {
			if fnum == num {
				return pos, nil
			}
			// A mismatched close is tolerated and skipped, matching
			// real-world encoders that occasionally emit unbalanced
			// legacy groups.
			continue
		}
		pos, err = SkipField(buf, pos, fnum, typ)
		if err != nil {
			return 0, err
		}
	}
}
