// Package cnp validates national identification numbers. A number is thirteen
// digits: S AA LL ZZ JJ NNN C, where S encodes century and sex, AA the year
// within the century, LL the month, ZZ the day, JJ the issuing county, NNN a
// sequence number and C a checksum digit.
package cnp

import (
	"fmt"
	"time"
)

// ErrorKind classifies why a number failed validation.
type ErrorKind string

const (
	ErrFormat   ErrorKind = "format"
	ErrDate     ErrorKind = "date"
	ErrRegion   ErrorKind = "region"
	ErrChecksum ErrorKind = "checksum"
)

// ValidationError carries the failure kind so callers can attach structured
// reason codes to extraction results instead of matching message strings.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cnp: %s: %s", e.Kind, e.Message)
}

func errf(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Parsed is a structurally valid, checksum-verified number.
type Parsed struct {
	Raw       string
	Sex       Sex
	Foreign   bool
	BirthDate time.Time
	Region    int
	Sequence  int
}

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// controlConstant weights the first twelve digits for the checksum relation.
// Weighted sum mod 11 gives the check digit, with remainder 10 mapping to 1.
const controlConstant = "279146358279"

// century maps the first digit to the birth century. Odd digits are male,
// even female. Digits 7-9 cover resident foreigners; the official seven-value
// table is the canonical one, the older six-value variant is not used.
var century = map[byte]int{
	'1': 1900, '2': 1900,
	'3': 2000, '4': 2000,
	'5': 1800, '6': 1800,
	'7': 1900, '8': 1900,
	'9': 2000,
}

// daysInMonth is the fixed bound per month. February admits 29 so leap-day
// births validate; there is no year-aware leap check.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

const (
	length    = 13
	regionMin = 1
	regionMax = 52
)

// Parse validates id in rule order: length and digits, century/sex code,
// calendar date, region, checksum. The first failed rule is reported; a number
// is never coerced toward validity.
func Parse(id string) (Parsed, error) {
	if len(id) != length {
		return Parsed{}, errf(ErrFormat, "want %d digits, got %d characters", length, len(id))
	}
	for i := 0; i < length; i++ {
		if id[i] < '0' || id[i] > '9' {
			return Parsed{}, errf(ErrFormat, "non-digit at position %d", i+1)
		}
	}

	base, ok := century[id[0]]
	if !ok {
		return Parsed{}, errf(ErrFormat, "century/sex code %c outside allowed table", id[0])
	}

	year := base + digits2(id, 1)
	month := digits2(id, 3)
	day := digits2(id, 5)
	if month < 1 || month > 12 {
		return Parsed{}, errf(ErrDate, "month %02d out of range", month)
	}
	if day < 1 || day > daysInMonth[month] {
		return Parsed{}, errf(ErrDate, "day %02d invalid for month %02d", day, month)
	}

	region := digits2(id, 7)
	if region < regionMin || region > regionMax {
		return Parsed{}, errf(ErrRegion, "region code %02d outside [%d,%d]", region, regionMin, regionMax)
	}

	if got, want := int(id[12]-'0'), checkDigit(id); got != want {
		return Parsed{}, errf(ErrChecksum, "check digit %d, computed %d", got, want)
	}

	return Parsed{
		Raw:       id,
		Sex:       sexOf(id[0]),
		Foreign:   id[0] >= '7',
		BirthDate: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		Region:    region,
		Sequence:  digits2(id, 9)*10 + int(id[11]-'0'),
	}, nil
}

// ValidateStructure runs the format, date and region rules but not the
// checksum. The extractor uses it to rank OCR candidates before committing to
// the full validation.
func ValidateStructure(id string) error {
	withCheck := id
	if len(id) == length {
		// Neutralize the check digit so only structural rules apply.
		withCheck = id[:12] + string(computedCheckByte(id))
	}
	_, err := Parse(withCheck)
	return err
}

// IsAdult reports whether the person the number describes is at least 18 whole
// years old at asOf. A person whose 18th birthday falls exactly on asOf counts
// as adult. This reports a fact, not an authorization decision.
func IsAdult(id string, asOf time.Time) (bool, error) {
	p, err := Parse(id)
	if err != nil {
		return false, err
	}
	years := asOf.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(asOf.UTC().Truncate(24 * time.Hour)) {
		years--
	}
	return years >= 18, nil
}

func checkDigit(id string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(id[i]-'0') * int(controlConstant[i]-'0')
	}
	r := sum % 11
	if r == 10 {
		return 1
	}
	return r
}

func computedCheckByte(id string) byte {
	return byte('0' + checkDigit(id))
}

func sexOf(code byte) Sex {
	switch {
	case code == '9':
		return SexUnknown
	case (code-'0')%2 == 1:
		return SexMale
	default:
		return SexFemale
	}
}

func digits2(id string, i int) int {
	return int(id[i]-'0')*10 + int(id[i+1]-'0')
}
