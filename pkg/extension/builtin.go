package extension

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"schemacore/pkg/schema"
)

// Implementation keys of the built-in extensions. Mirrors the key scheme a
// schema entry uses in its implementation attribute.
const (
	KeyCaseIgnoreComparator       = "schemacore.comparator.caseIgnore"
	KeyCaseExactComparator        = "schemacore.comparator.caseExact"
	KeyIntegerComparator          = "schemacore.comparator.integer"
	KeyBooleanComparator          = "schemacore.comparator.boolean"
	KeyOctetStringComparator      = "schemacore.comparator.octetString"
	KeyNumericStringComparator    = "schemacore.comparator.numericString"
	KeyTelephoneNumberComparator  = "schemacore.comparator.telephoneNumber"
	KeyGeneralizedTimeComparator  = "schemacore.comparator.generalizedTime"
	KeyObjectIdentifierComparator = "schemacore.comparator.objectIdentifier"

	KeyCaseIgnoreNormalizer      = "schemacore.normalizer.caseIgnore"
	KeyCaseExactNormalizer       = "schemacore.normalizer.caseExact"
	KeyNoOpNormalizer            = "schemacore.normalizer.noop"
	KeyNumericStringNormalizer   = "schemacore.normalizer.numericString"
	KeyTelephoneNumberNormalizer = "schemacore.normalizer.telephoneNumber"

	KeyDirectoryStringChecker = "schemacore.checker.directoryString"
	KeyIA5StringChecker       = "schemacore.checker.ia5String"
	KeyIntegerChecker         = "schemacore.checker.integer"
	KeyBooleanChecker         = "schemacore.checker.boolean"
	KeyPrintableStringChecker = "schemacore.checker.printableString"
	KeyNumericStringChecker   = "schemacore.checker.numericString"
	KeyTelephoneNumberChecker = "schemacore.checker.telephoneNumber"
	KeyOctetStringChecker     = "schemacore.checker.octetString"
	KeyOIDChecker             = "schemacore.checker.oid"
)

// OctetStringSyntaxOID is the syntax the prototype octet string checker
// answers to; it is registered as an instance rather than a builder.
const OctetStringSyntaxOID = schema.OID("1.3.6.1.4.1.1466.115.121.1.40")

// Default returns an extension set with every built-in implementation
// registered.
func Default() *Set {
	s := NewSet()
	registerBuiltins(s)
	return s
}

func registerBuiltins(s *Set) {
	comparators := map[string]func(a, b []byte) int{
		KeyCaseIgnoreComparator:       compareCaseIgnore,
		KeyCaseExactComparator:        compareCaseExact,
		KeyIntegerComparator:          compareInteger,
		KeyBooleanComparator:          compareCaseIgnore,
		KeyOctetStringComparator:      bytes.Compare,
		KeyNumericStringComparator:    compareNumericString,
		KeyTelephoneNumberComparator:  compareTelephoneNumber,
		KeyGeneralizedTimeComparator:  compareCaseExact,
		KeyObjectIdentifierComparator: compareCaseIgnore,
	}
	for key, fn := range comparators {
		MustRegister(s.Comparators, key, comparerBuilder(fn))
	}

	normalizers := map[string]func(value []byte) ([]byte, error){
		KeyCaseIgnoreNormalizer:      normalizeCaseIgnore,
		KeyCaseExactNormalizer:       normalizeCaseExact,
		KeyNoOpNormalizer:            normalizeNoOp,
		KeyNumericStringNormalizer:   normalizeNumericString,
		KeyTelephoneNumberNormalizer: normalizeTelephoneNumber,
	}
	for key, fn := range normalizers {
		MustRegister(s.Normalizers, key, normalizerBuilder(fn))
	}

	checkers := map[string]func(value []byte) bool{
		KeyDirectoryStringChecker: checkDirectoryString,
		KeyIA5StringChecker:       checkIA5String,
		KeyIntegerChecker:         checkInteger,
		KeyBooleanChecker:         checkBoolean,
		KeyPrintableStringChecker: checkPrintableString,
		KeyNumericStringChecker:   checkNumericString,
		KeyTelephoneNumberChecker: checkTelephoneNumber,
		KeyOIDChecker:             checkOID,
	}
	for key, fn := range checkers {
		MustRegister(s.Checkers, key, checkerBuilder(fn))
	}

	// Octet string accepts everything; registered as a shared prototype so
	// the instance resolution path stays exercised.
	if err := s.Checkers.RegisterInstance(KeyOctetStringChecker, OctetStringSyntaxOID, checkerFunc(func([]byte) bool { return true })); err != nil {
		panic(err)
	}
}

type comparerFunc func(a, b []byte) int

func (f comparerFunc) Compare(a, b []byte) int { return f(a, b) }

type normalizerFunc func(value []byte) ([]byte, error)

func (f normalizerFunc) Normalize(value []byte) ([]byte, error) { return f(value) }

type checkerFunc func(value []byte) bool

func (f checkerFunc) Valid(value []byte) bool { return f(value) }

func comparerBuilder(fn func(a, b []byte) int) Builder[schema.ValueComparer] {
	return func(schema.OID) (schema.ValueComparer, error) { return comparerFunc(fn), nil }
}

func normalizerBuilder(fn func(value []byte) ([]byte, error)) Builder[schema.ValueNormalizer] {
	return func(schema.OID) (schema.ValueNormalizer, error) { return normalizerFunc(fn), nil }
}

func checkerBuilder(fn func(value []byte) bool) Builder[schema.ValueChecker] {
	return func(schema.OID) (schema.ValueChecker, error) { return checkerFunc(fn), nil }
}

// collapseSpaces trims and folds runs of spaces into one, the insignificant
// space handling applied before caseIgnore/caseExact matching.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func compareCaseIgnore(a, b []byte) int {
	return strings.Compare(strings.ToLower(collapseSpaces(string(a))), strings.ToLower(collapseSpaces(string(b))))
}

func compareCaseExact(a, b []byte) int {
	return strings.Compare(collapseSpaces(string(a)), collapseSpaces(string(b)))
}

func compareInteger(a, b []byte) int {
	ia, errA := strconv.ParseInt(strings.TrimSpace(string(a)), 10, 64)
	ib, errB := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if errA != nil || errB != nil {
		return bytes.Compare(a, b)
	}
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

func stripChars(s string, drop string) string {
	var sb strings.Builder
	for _, r := range s {
		if !strings.ContainsRune(drop, r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func compareNumericString(a, b []byte) int {
	return strings.Compare(stripChars(string(a), " "), stripChars(string(b), " "))
}

func compareTelephoneNumber(a, b []byte) int {
	return strings.Compare(stripChars(string(a), " -"), stripChars(string(b), " -"))
}

func normalizeCaseIgnore(value []byte) ([]byte, error) {
	return []byte(strings.ToLower(collapseSpaces(string(value)))), nil
}

func normalizeCaseExact(value []byte) ([]byte, error) {
	return []byte(collapseSpaces(string(value))), nil
}

func normalizeNoOp(value []byte) ([]byte, error) {
	return append([]byte(nil), value...), nil
}

func normalizeNumericString(value []byte) ([]byte, error) {
	return []byte(stripChars(string(value), " ")), nil
}

func normalizeTelephoneNumber(value []byte) ([]byte, error) {
	return []byte(stripChars(string(value), " -")), nil
}

func checkDirectoryString(value []byte) bool {
	return len(value) > 0 && utf8.Valid(value)
}

func checkIA5String(value []byte) bool {
	for _, b := range value {
		if b > 127 {
			return false
		}
	}
	return true
}

func checkInteger(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	start := 0
	if value[0] == '-' || value[0] == '+' {
		if len(value) == 1 {
			return false
		}
		start = 1
	}
	for i := start; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

func checkBoolean(value []byte) bool {
	s := string(value)
	return s == "TRUE" || s == "FALSE"
}

func isPrintableChar(b byte) bool {
	if b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' {
		return true
	}
	switch b {
	case ' ', '\'', '(', ')', '+', ',', '-', '.', '/', ':', '=', '?':
		return true
	}
	return false
}

func checkPrintableString(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	for _, b := range value {
		if !isPrintableChar(b) {
			return false
		}
	}
	return true
}

func checkNumericString(value []byte) bool {
	for _, b := range value {
		if b != ' ' && (b < '0' || b > '9') {
			return false
		}
	}
	return true
}

func checkTelephoneNumber(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	for _, b := range value {
		if b >= '0' && b <= '9' {
			continue
		}
		switch b {
		case ' ', '-', '(', ')', '+', '.':
		default:
			return false
		}
	}
	return true
}

func checkOID(value []byte) bool {
	return schema.ValidOID(string(value))
}
