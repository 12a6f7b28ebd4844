package lmhist

// List-mode format version 1 ("LM32"): 32-bit little-endian words.
//
// bit 31 = 0 -> coincidence event
//     bit 30      prompt flag (1 prompt, 0 delayed)
//     bits 0-29   raw detector-pair code
// bit 31 = 1 -> control word, kind in bits 28-30
//     kind 0      time tag, bits 0-27 millisecond marker
//     kind 1      singles update, bits 18-27 block id, bits 0-17 count delta
//     kind 2      gating tag, bits 0-27 gate mask
//     kind 3      motion tag, bits 0-27 payload
//     kind 4-7    reserved
const FormatLM32 uint16 = 1

const (
	controlBit   uint32 = 0x80000000
	promptBit    uint32 = 0x40000000
	pairCodeMask uint32 = 0x3FFFFFFF

	controlKindShift = 28
	controlKindMask  uint32 = 0x7
	payloadMask      uint32 = 0x0FFFFFFF

	singlesBlockShift        = 18
	singlesBlockMask  uint32 = 0x3FF
	singlesDeltaMask  uint32 = 0x3FFFF
)

const (
	kindTimeTag = iota
	kindSingles
	kindGating
	kindMotion
)

// DecodeWord turns one raw word into an Event. Words whose pattern matches
// no known tag come back as Unknown; the caller counts and skips them, a
// single corrupt record never aborts a run.
func DecodeWord(w uint32, format uint16) Event {
	switch format {
	case FormatLM32:
		return decodeLM32(w)
	}
	return Event{Kind: Unknown}
}

func decodeLM32(w uint32) Event {
	if w&controlBit == 0 {
		return Event{
			Kind:     Coincidence,
			Prompt:   w&promptBit != 0,
			PairCode: w & pairCodeMask,
		}
	}

	switch (w >> controlKindShift) & controlKindMask {
	case kindTimeTag:
		return Event{Kind: TimeTag, Payload: w & payloadMask}
	case kindSingles:
		return Event{
			Kind:  SinglesUpdate,
			Block: uint16((w >> singlesBlockShift) & singlesBlockMask),
			Delta: w & singlesDeltaMask,
		}
	case kindGating:
		return Event{Kind: GatingTag, Payload: w & payloadMask}
	case kindMotion:
		return Event{Kind: MotionTag, Payload: w & payloadMask}
	}
	return Event{Kind: Unknown}
}

// IsTimeTag reports whether a raw word is a time tag without building the
// Event. The segmenting pre-pass calls this once per word of the file.
func IsTimeTag(w uint32, format uint16) bool {
	if format != FormatLM32 {
		return false
	}
	return w&controlBit != 0 && (w>>controlKindShift)&controlKindMask == kindTimeTag
}
