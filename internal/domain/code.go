package domain

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 4

	// RoomCodeAlphabet are the characters used for room codes. Visually
	// ambiguous characters (0/O, 1/I) are excluded so codes stay legible
	// and speakable.
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CodeGenerator produces short human-shareable room codes. It makes no
// uniqueness guarantee; the storage layer detects collisions if they
// matter. The random source is injected so tests can seed it.
type CodeGenerator struct {
	length int
	rng    Rand
}

// NewCodeGenerator creates a generator producing codes of the given
// length from the room code alphabet. A non-positive length falls back
// to the default.
func NewCodeGenerator(length int, rng Rand) *CodeGenerator {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}
	return &CodeGenerator{length: length, rng: rng}
}

// Generate returns a fresh room code
func (g *CodeGenerator) Generate() string {
	code := make([]byte, g.length)
	for i := range code {
		code[i] = RoomCodeAlphabet[g.rng.Intn(len(RoomCodeAlphabet))]
	}
	return string(code)
}
