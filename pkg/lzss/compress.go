package lzss

import "fmt"

const (
	// maxDistance keeps a reference from reading ring slots the same copy
	// has already overwritten.
	maxDistance = N - maxMatch
	chainDepth  = 64

	shortRunMin = 4 // count 3 would encode as the long-run marker 0x0F
	shortRunMax = 0x0F + Threshold + 1
	longRunMin  = 0x10 + Threshold + 1
	longRunMax  = 0xFF + longRunMin
)

// Compress encodes src so that Decompress with the same variant reproduces
// it. References only point at bytes already emitted, never into the seeded
// part of the window. Type 3 output also uses run tokens and caps matches
// one short of the length nibble reserved for runs.
func Compress(src []byte, variant Variant) ([]byte, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedVariant, byte(variant))
	}
	if len(src) == 0 {
		return []byte{}, nil
	}

	limit := maxMatch
	if variant == Type3 {
		limit = maxMatch - 1
	}
	start := variant.start()

	var result []byte
	codeBuf := make([]byte, 1, 1+8*3)
	var mask byte = 1

	flush := func() {
		result = append(result, codeBuf...)
		codeBuf = codeBuf[:1]
		codeBuf[0] = 0
		mask = 1
	}
	next := func() {
		mask <<= 1
		if mask == 0 {
			flush()
		}
	}

	chains := make(map[uint32][]int)
	insert := func(p int) {
		if p+2 >= len(src) {
			return
		}
		key := uint32(src[p])<<16 | uint32(src[p+1])<<8 | uint32(src[p+2])
		chain := append(chains[key], p)
		if len(chain) > chainDepth*2 {
			chain = append(chain[:0:0], chain[len(chain)-chainDepth:]...)
		}
		chains[key] = chain
	}

	p := 0
	for p < len(src) {
		remaining := len(src) - p

		if variant == Type3 {
			if run := runLength(src, p, longRunMax); run >= shortRunMin {
				if run <= shortRunMax {
					codeBuf = append(codeBuf, src[p], byte((run-Threshold-1)<<4|0x0F))
				} else {
					codeBuf = append(codeBuf, byte(run-longRunMin), 0x0F, src[p])
				}
				next()
				for k := 0; k < run; k++ {
					insert(p + k)
				}
				p += run
				continue
			}
		}

		bestLen, bestPos := 0, 0
		if remaining > Threshold {
			key := uint32(src[p])<<16 | uint32(src[p+1])<<8 | uint32(src[p+2])
			chain := chains[key]
			tried := 0
			for c := len(chain) - 1; c >= 0 && tried < chainDepth; c-- {
				q := chain[c]
				if p-q > maxDistance {
					break
				}
				tried++
				l := 0
				for l < limit && l < remaining && src[q+l] == src[p+l] {
					l++
				}
				if l > bestLen {
					bestLen, bestPos = l, q
					if l == limit {
						break
					}
				}
			}
		}

		if bestLen <= Threshold {
			codeBuf[0] |= mask
			codeBuf = append(codeBuf, src[p])
			next()
			insert(p)
			p++
			continue
		}

		offset := (start + bestPos) & NMask
		codeBuf = append(codeBuf,
			byte(offset&0xFF),
			byte(((offset>>4)&0xF0)|((bestLen-(Threshold+1))&0x0F)))
		next()
		for k := 0; k < bestLen; k++ {
			insert(p + k)
		}
		p += bestLen
	}

	if len(codeBuf) > 1 {
		result = append(result, codeBuf...)
	}

	return result, nil
}

func runLength(src []byte, p, max int) int {
	n := 1
	for p+n < len(src) && n < max && src[p+n] == src[p] {
		n++
	}
	return n
}
