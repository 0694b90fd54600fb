package reputation

// Grade is the public-facing letter for a company. It blends response time
// with ghosting and is kept separate from ResponseTimeScore on purpose.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

const (
	responseTimeWeight = 0.6
	reliabilityWeight  = 0.4
)

func Overall(s Score) float64 {
	v := responseTimeWeight*s.ResponseTimeScore + reliabilityWeight*(100-s.GhostingRate)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return round2(v)
}

func GradeFor(overall float64) Grade {
	switch {
	case overall >= 90:
		return GradeA
	case overall >= 75:
		return GradeB
	case overall >= 60:
		return GradeC
	case overall >= 40:
		return GradeD
	default:
		return GradeF
	}
}
