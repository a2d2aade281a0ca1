package source

import (
	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

// Standard syntax OIDs used by the bootstrap schemas.
const (
	syntaxBoolean         = "1.3.6.1.4.1.1466.115.121.1.7"
	syntaxDirectoryString = "1.3.6.1.4.1.1466.115.121.1.15"
	syntaxGeneralizedTime = "1.3.6.1.4.1.1466.115.121.1.24"
	syntaxIA5String       = "1.3.6.1.4.1.1466.115.121.1.26"
	syntaxInteger         = "1.3.6.1.4.1.1466.115.121.1.27"
	syntaxNumericString   = "1.3.6.1.4.1.1466.115.121.1.36"
	syntaxOIDForm         = "1.3.6.1.4.1.1466.115.121.1.38"
	syntaxPrintableString = "1.3.6.1.4.1.1466.115.121.1.44"
	syntaxTelephoneNumber = "1.3.6.1.4.1.1466.115.121.1.50"
)

// Private arc carrying the OIDs of the built-in loadable objects.
const loadableArc = "1.3.6.1.4.1.59535"

// Builtin returns the bootstrap source: the system schema (syntaxes,
// matching rules, loadable behavior, the objectClass attribute and top) and
// the core schema of common user attributes and classes depending on it.
func Builtin() *Memory {
	return NewMemory(systemBundle(), coreBundle())
}

func entryRec(kind schema.Kind, set func(e *schema.Entry)) schema.Record {
	e := schema.NewEntry()
	set(&e)
	return schema.Record{Kind: kind, Entry: e}
}

func syntaxRec(oid, desc string, humanReadable bool) schema.Record {
	return entryRec(schema.KindLDAPSyntax, func(e *schema.Entry) {
		e.Set(schema.AttrOID, oid)
		e.Set(schema.AttrDescription, desc)
		if humanReadable {
			e.Set(schema.AttrHumanReadable, "TRUE")
		}
	})
}

func matchingRuleRec(oid, name, syntax string) schema.Record {
	return entryRec(schema.KindMatchingRule, func(e *schema.Entry) {
		e.Set(schema.AttrOID, oid)
		e.Set(schema.AttrName, name)
		e.Set(schema.AttrSyntax, syntax)
	})
}

func loadableRec(kind schema.Kind, oid, name, key string) schema.Record {
	return entryRec(kind, func(e *schema.Entry) {
		e.Set(schema.AttrOID, oid)
		e.Set(schema.AttrName, name)
		e.Set(schema.AttrImplementation, key)
	})
}

func systemBundle() Bundle {
	records := []schema.Record{
		syntaxRec(syntaxBoolean, "Boolean", true),
		syntaxRec(syntaxDirectoryString, "Directory String", true),
		syntaxRec(syntaxGeneralizedTime, "Generalized Time", true),
		syntaxRec(syntaxIA5String, "IA5 String", true),
		syntaxRec(syntaxInteger, "INTEGER", true),
		syntaxRec(syntaxNumericString, "Numeric String", true),
		syntaxRec(syntaxOIDForm, "OID", true),
		syntaxRec(syntaxPrintableString, "Printable String", true),
		syntaxRec(syntaxTelephoneNumber, "Telephone Number", true),

		matchingRuleRec("2.5.13.0", "objectIdentifierMatch", syntaxOIDForm),
		matchingRuleRec("2.5.13.2", "caseIgnoreMatch", syntaxDirectoryString),
		matchingRuleRec("2.5.13.3", "caseIgnoreOrderingMatch", syntaxDirectoryString),
		matchingRuleRec("2.5.13.5", "caseExactMatch", syntaxDirectoryString),
		matchingRuleRec("2.5.13.8", "numericStringMatch", syntaxNumericString),
		matchingRuleRec("2.5.13.13", "booleanMatch", syntaxBoolean),
		matchingRuleRec("2.5.13.14", "integerMatch", syntaxInteger),
		matchingRuleRec("2.5.13.15", "integerOrderingMatch", syntaxInteger),
		matchingRuleRec("2.5.13.20", "telephoneNumberMatch", syntaxTelephoneNumber),
		matchingRuleRec("2.5.13.27", "generalizedTimeMatch", syntaxGeneralizedTime),

		loadableRec(schema.KindComparator, loadableArc+".1.1", "caseIgnoreComparator", extension.KeyCaseIgnoreComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.2", "caseExactComparator", extension.KeyCaseExactComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.3", "integerComparator", extension.KeyIntegerComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.4", "booleanComparator", extension.KeyBooleanComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.5", "numericStringComparator", extension.KeyNumericStringComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.6", "telephoneNumberComparator", extension.KeyTelephoneNumberComparator),
		loadableRec(schema.KindComparator, loadableArc+".1.7", "objectIdentifierComparator", extension.KeyObjectIdentifierComparator),

		loadableRec(schema.KindNormalizer, loadableArc+".2.1", "caseIgnoreNormalizer", extension.KeyCaseIgnoreNormalizer),
		loadableRec(schema.KindNormalizer, loadableArc+".2.2", "caseExactNormalizer", extension.KeyCaseExactNormalizer),
		loadableRec(schema.KindNormalizer, loadableArc+".2.3", "numericStringNormalizer", extension.KeyNumericStringNormalizer),

		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.1", "directoryStringChecker", extension.KeyDirectoryStringChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.2", "ia5StringChecker", extension.KeyIA5StringChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.3", "integerChecker", extension.KeyIntegerChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.4", "booleanChecker", extension.KeyBooleanChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.5", "printableStringChecker", extension.KeyPrintableStringChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.6", "numericStringChecker", extension.KeyNumericStringChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.7", "telephoneNumberChecker", extension.KeyTelephoneNumberChecker),
		loadableRec(schema.KindSyntaxChecker, loadableArc+".3.8", "oidChecker", extension.KeyOIDChecker),

		entryRec(schema.KindAttributeType, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.4.0")
			e.Set(schema.AttrName, "objectClass")
			e.Set(schema.AttrEquality, "2.5.13.0")
			e.Set(schema.AttrSyntax, syntaxOIDForm)
		}),
		entryRec(schema.KindAttributeType, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.18.1")
			e.Set(schema.AttrName, "createTimestamp")
			e.Set(schema.AttrEquality, "2.5.13.27")
			e.Set(schema.AttrSyntax, syntaxGeneralizedTime)
			e.Set(schema.AttrSingleValue, "TRUE")
			e.Set(schema.AttrNoUserModification, "TRUE")
			e.Set(schema.AttrUsage, "directoryOperation")
		}),
		entryRec(schema.KindAttributeType, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.18.2")
			e.Set(schema.AttrName, "modifyTimestamp")
			e.Set(schema.AttrEquality, "2.5.13.27")
			e.Set(schema.AttrSyntax, syntaxGeneralizedTime)
			e.Set(schema.AttrSingleValue, "TRUE")
			e.Set(schema.AttrNoUserModification, "TRUE")
			e.Set(schema.AttrUsage, "directoryOperation")
		}),
		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.6.0")
			e.Set(schema.AttrName, "top")
			e.Set(schema.AttrClassKind, "ABSTRACT")
			e.Set(schema.AttrMust, "2.5.4.0")
		}),
	}
	return Bundle{
		Descriptor: schema.Schema{Name: "system", Owner: "schemacore", Enabled: true},
		Records:    records,
	}
}

func attributeRec(oid, desc string, set func(e *schema.Entry), names ...string) schema.Record {
	return entryRec(schema.KindAttributeType, func(e *schema.Entry) {
		e.Set(schema.AttrOID, oid)
		e.Add(schema.AttrName, names...)
		if desc != "" {
			e.Set(schema.AttrDescription, desc)
		}
		if set != nil {
			set(e)
		}
	})
}

func coreBundle() Bundle {
	directoryString := func(e *schema.Entry) {
		e.Set(schema.AttrEquality, "2.5.13.2")
		e.Set(schema.AttrSyntax, syntaxDirectoryString)
	}
	records := []schema.Record{
		attributeRec("2.5.4.41", "RFC4519: common supertype of name attributes", directoryString, "name"),
		attributeRec("2.5.4.3", "RFC4519: common name", func(e *schema.Entry) {
			e.Set(schema.AttrSuperior, "2.5.4.41")
		}, "cn", "commonName"),
		attributeRec("2.5.4.4", "RFC4519: last (family) name", func(e *schema.Entry) {
			e.Set(schema.AttrSuperior, "2.5.4.41")
		}, "sn", "surname"),
		attributeRec("2.5.4.7", "RFC4519: locality", func(e *schema.Entry) {
			e.Set(schema.AttrSuperior, "2.5.4.41")
		}, "l", "localityName"),
		attributeRec("2.5.4.10", "RFC4519: organization", func(e *schema.Entry) {
			e.Set(schema.AttrSuperior, "2.5.4.41")
		}, "o", "organizationName"),
		attributeRec("2.5.4.11", "RFC4519: organizational unit", func(e *schema.Entry) {
			e.Set(schema.AttrSuperior, "2.5.4.41")
		}, "ou", "organizationalUnitName"),
		attributeRec("2.5.4.12", "RFC4519: title", directoryString, "title"),
		attributeRec("2.5.4.13", "RFC4519: descriptive information", directoryString, "description"),
		attributeRec("2.5.4.20", "RFC4519: telephone number", func(e *schema.Entry) {
			e.Set(schema.AttrEquality, "2.5.13.20")
			e.Set(schema.AttrSyntax, syntaxTelephoneNumber)
		}, "telephoneNumber"),
		attributeRec("2.5.4.49", "RFC4519: distinguished name", func(e *schema.Entry) {
			e.Set(schema.AttrEquality, "2.5.13.2")
			e.Set(schema.AttrSyntax, syntaxDirectoryString)
		}, "distinguishedName"),

		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.6.6")
			e.Set(schema.AttrName, "person")
			e.Set(schema.AttrSuperior, "2.5.6.0")
			e.Set(schema.AttrClassKind, "STRUCTURAL")
			e.Add(schema.AttrMust, "2.5.4.3", "2.5.4.4")
			e.Add(schema.AttrMay, "2.5.4.13", "2.5.4.20")
		}),
		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.6.7")
			e.Set(schema.AttrName, "organizationalPerson")
			e.Set(schema.AttrSuperior, "2.5.6.6")
			e.Set(schema.AttrClassKind, "STRUCTURAL")
			e.Add(schema.AttrMay, "2.5.4.7", "2.5.4.11", "2.5.4.12")
		}),
		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.6.4")
			e.Set(schema.AttrName, "organization")
			e.Set(schema.AttrSuperior, "2.5.6.0")
			e.Set(schema.AttrClassKind, "STRUCTURAL")
			e.Set(schema.AttrMust, "2.5.4.10")
			e.Add(schema.AttrMay, "2.5.4.7", "2.5.4.13", "2.5.4.20")
		}),
		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "2.5.6.5")
			e.Set(schema.AttrName, "organizationalUnit")
			e.Set(schema.AttrSuperior, "2.5.6.0")
			e.Set(schema.AttrClassKind, "STRUCTURAL")
			e.Set(schema.AttrMust, "2.5.4.11")
			e.Add(schema.AttrMay, "2.5.4.7", "2.5.4.13", "2.5.4.20")
		}),
		entryRec(schema.KindObjectClass, func(e *schema.Entry) {
			e.Set(schema.AttrOID, "1.3.6.1.4.1.1466.101.120.111")
			e.Set(schema.AttrName, "extensibleObject")
			e.Set(schema.AttrSuperior, "2.5.6.0")
			e.Set(schema.AttrClassKind, "AUXILIARY")
		}),
	}
	return Bundle{
		Descriptor: schema.Schema{
			Name:         "core",
			Owner:        "schemacore",
			Dependencies: []string{"system"},
			Enabled:      true,
		},
		Records: records,
	}
}
