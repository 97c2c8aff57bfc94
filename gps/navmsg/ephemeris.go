package navmsg

// ICD-200 scale factors for the two's-complement and unsigned ephemeris
// fields (RTKLIB's naming, P2_n = 2^-n).
const (
	p2_5   = 0.03125
	p2_19  = 1.9073486328125e-06
	p2_29  = 1.862645149230957e-09
	p2_31  = 4.656612873077393e-10
	p2_33  = 1.164153218269348e-10
	p2_43  = 1.136868377216160e-13
	p2_55  = 2.775557561562891e-17
	sc2Rad = 3.1415926535898 // semicircles to radians
)

// Ephemeris holds the broadcast Keplerian and clock-correction parameters
// for one SV, assembled from subframes 1, 2, and 3. All fields are
// float64/int/uint32 with JSON tags so a snapshot round-trips through
// PersistedEphemeris without precision loss.
type Ephemeris struct {
	SV     int     `json:"sv"`
	Week   int     `json:"week"`
	Health uint32  `json:"health"`
	URA    uint32  `json:"ura"`
	TGD    float64 `json:"tgd"`

	Toc float64 `json:"toc"`
	Af0 float64 `json:"af0"`
	Af1 float64 `json:"af1"`
	Af2 float64 `json:"af2"`

	IODE   uint32  `json:"iode"`
	Crs    float64 `json:"crs"`
	DeltaN float64 `json:"delta_n"`
	M0     float64 `json:"m0"`
	Cuc    float64 `json:"cuc"`
	Ecc    float64 `json:"ecc"`
	Cus    float64 `json:"cus"`
	SqrtA  float64 `json:"sqrt_a"`
	Toe    float64 `json:"toe"`

	Cic      float64 `json:"cic"`
	Omega0   float64 `json:"omega0"`
	Cis      float64 `json:"cis"`
	I0       float64 `json:"i0"`
	Crc      float64 `json:"crc"`
	Omega    float64 `json:"omega"`
	OmegaDot float64 `json:"omega_dot"`
	IDOT     float64 `json:"idot"`
}

// Builder accumulates subframes 1-3 for one SV, enforcing the IODE
// consistency invariant (subframe 2 and 3 IODE must match) before
// reporting a complete Ephemeris.
type Builder struct {
	sv int

	haveSF1 bool
	haveSF2 bool
	haveSF3 bool

	sf1Week   int
	sf1Health uint32
	sf1URA    uint32
	sf1TGD    float64
	sf1Toc    float64
	sf1Af0    float64
	sf1Af1    float64
	sf1Af2    float64

	sf2IODE   uint32
	sf2Crs    float64
	sf2DeltaN float64
	sf2M0     float64
	sf2Cuc    float64
	sf2Ecc    float64
	sf2Cus    float64
	sf2SqrtA  float64
	sf2Toe    float64

	sf3IODE     uint32
	sf3Cic      float64
	sf3Omega0   float64
	sf3Cis      float64
	sf3I0       float64
	sf3Crc      float64
	sf3Omega    float64
	sf3OmegaDot float64
	sf3IDOT     float64
}

// NewBuilder returns an ephemeris builder for sv.
func NewBuilder(sv int) *Builder {
	return &Builder{sv: sv}
}

// Feed applies one parity-checked subframe. It returns a completed
// Ephemeris and true once subframes 1, 2, and 3 have all been seen with
// subframe 2 and 3 IODE agreeing; otherwise it returns ok=false, and
// consistent=false specifically when an IODE mismatch was detected
// (the caller should emit EphemerisInconsistent and discard the
// in-progress build).
func (b *Builder) Feed(sub *Subframe) (eph Ephemeris, ok bool, consistent bool) {
	switch sub.ID {
	case 1:
		b.decodeSubframe1(sub.Packed)
	case 2:
		b.decodeSubframe2(sub.Packed)
	case 3:
		if b.haveSF2 && b.sf2IODE != sf3IODEField(sub.Packed) {
			b.haveSF2 = false
			b.haveSF3 = false
			return Ephemeris{}, false, false
		}
		b.decodeSubframe3(sub.Packed)
	default:
		return Ephemeris{}, false, true
	}

	if !(b.haveSF1 && b.haveSF2 && b.haveSF3) {
		return Ephemeris{}, false, true
	}
	if b.sf2IODE != b.sf3IODE {
		return Ephemeris{}, false, false
	}

	return Ephemeris{
		SV:       b.sv,
		Week:     b.sf1Week,
		Health:   b.sf1Health,
		URA:      b.sf1URA,
		TGD:      b.sf1TGD,
		Toc:      b.sf1Toc,
		Af0:      b.sf1Af0,
		Af1:      b.sf1Af1,
		Af2:      b.sf1Af2,
		IODE:     b.sf2IODE,
		Crs:      b.sf2Crs,
		DeltaN:   b.sf2DeltaN,
		M0:       b.sf2M0,
		Cuc:      b.sf2Cuc,
		Ecc:      b.sf2Ecc,
		Cus:      b.sf2Cus,
		SqrtA:    b.sf2SqrtA,
		Toe:      b.sf2Toe,
		Cic:      b.sf3Cic,
		Omega0:   b.sf3Omega0,
		Cis:      b.sf3Cis,
		I0:       b.sf3I0,
		Crc:      b.sf3Crc,
		Omega:    b.sf3Omega,
		OmegaDot: b.sf3OmegaDot,
		IDOT:     b.sf3IDOT,
	}, true, true
}

func sf3IODEField(buff []byte) uint32 {
	return getBitU(buff, 270, 8)
}

func (b *Builder) decodeSubframe1(buff []byte) {
	weekRaw := getBitU(buff, 60, 10)
	b.sf1Week = adjustGPSWeek(int(weekRaw) + 1024)
	b.sf1URA = getBitU(buff, 72, 4)
	b.sf1Health = getBitU(buff, 76, 6)
	b.sf1TGD = float64(getBitS(buff, 196, 8)) * p2_31
	b.sf1Toc = float64(getBitU(buff, 218, 16)) * 16.0
	b.sf1Af2 = float64(getBitS(buff, 240, 8)) * p2_55
	b.sf1Af1 = float64(getBitS(buff, 248, 16)) * p2_43
	b.sf1Af0 = float64(getBitS(buff, 270, 22)) * p2_31
	b.haveSF1 = true
}

func (b *Builder) decodeSubframe2(buff []byte) {
	b.sf2IODE = getBitU(buff, 60, 8)
	b.sf2Crs = float64(getBitS(buff, 68, 16)) * p2_5
	b.sf2DeltaN = float64(getBitS(buff, 90, 16)) * p2_43 * sc2Rad
	b.sf2M0 = float64(getBitS2(buff, 106, 8, 120, 24)) * p2_31 * sc2Rad
	b.sf2Cuc = float64(getBitS(buff, 150, 16)) * p2_29
	b.sf2Ecc = float64(getBitU2(buff, 166, 8, 180, 24)) * p2_33
	b.sf2Cus = float64(getBitS(buff, 210, 16)) * p2_29
	sqrtA := float64(getBitU2(buff, 226, 8, 240, 24)) * p2_19
	b.sf2SqrtA = sqrtA
	b.sf2Toe = float64(getBitU(buff, 270, 16)) * 16.0
	b.haveSF2 = true
}

func (b *Builder) decodeSubframe3(buff []byte) {
	b.sf3Cic = float64(getBitS(buff, 60, 16)) * p2_29
	b.sf3Omega0 = float64(getBitS2(buff, 76, 8, 90, 24)) * p2_31 * sc2Rad
	b.sf3Cis = float64(getBitS(buff, 120, 16)) * p2_29
	b.sf3I0 = float64(getBitS2(buff, 136, 8, 150, 24)) * p2_31 * sc2Rad
	b.sf3Crc = float64(getBitS(buff, 180, 16)) * p2_5
	b.sf3Omega = float64(getBitS2(buff, 196, 8, 210, 24)) * p2_31 * sc2Rad
	b.sf3OmegaDot = float64(getBitS(buff, 240, 24)) * p2_43 * sc2Rad
	b.sf3IODE = getBitU(buff, 270, 8)
	b.sf3IDOT = float64(getBitS(buff, 278, 14)) * p2_43 * sc2Rad
	b.haveSF3 = true
}

// adjustGPSWeek resolves the 10-bit broadcast week number against the
// receiver's rollover epoch, following RTKLIB's adjgpsweek.
func adjustGPSWeek(week int) int {
	const rolloverWeek = 1560
	return week + (rolloverWeek-week+512)/1024*1024
}
