// Package schema defines the typed schema object model, schema descriptors,
// attribute records, and the violation/result primitives used by the
// schemacore registry engine.
package schema

import (
	"sort"
	"strconv"
)

// OID is a schema object identifier. In strict mode OIDs are numeric dotted
// identifiers; DIT structure rules use their decimal rule id instead.
type OID string

// Kind identifies the type of schema object held in the catalog.
type Kind string

// Supported schema object kinds.
const (
	// KindAttributeType identifies an attribute type definition.
	KindAttributeType Kind = "attributeType"
	// KindObjectClass identifies an object class definition.
	KindObjectClass Kind = "objectClass"
	// KindMatchingRule identifies a matching rule definition.
	KindMatchingRule Kind = "matchingRule"
	// KindLDAPSyntax identifies an attribute syntax definition.
	KindLDAPSyntax Kind = "ldapSyntax"
	// KindMatchingRuleUse identifies a matching rule use definition.
	KindMatchingRuleUse Kind = "matchingRuleUse"
	// KindDITContentRule identifies a DIT content rule definition.
	KindDITContentRule Kind = "ditContentRule"
	// KindDITStructureRule identifies a DIT structure rule definition.
	KindDITStructureRule Kind = "ditStructureRule"
	// KindNameForm identifies a name form definition.
	KindNameForm Kind = "nameForm"
	// KindComparator identifies a loadable value comparator.
	KindComparator Kind = "comparator"
	// KindNormalizer identifies a loadable value normalizer.
	KindNormalizer Kind = "normalizer"
	// KindSyntaxChecker identifies a loadable syntax checker.
	KindSyntaxChecker Kind = "syntaxChecker"
)

// Kinds lists every schema object kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindAttributeType, KindObjectClass, KindMatchingRule, KindLDAPSyntax,
		KindMatchingRuleUse, KindDITContentRule, KindDITStructureRule,
		KindNameForm, KindComparator, KindNormalizer, KindSyntaxChecker,
	}
}

// Reference is a typed outbound reference from one schema object to another,
// labelled with the field it originates from.
type Reference struct {
	Field  string
	Target OID
}

// SchemaObject is the contract shared by every typed schema definition held
// in the registries.
type SchemaObject interface {
	Kind() Kind
	ID() OID
	Common() *Base
	Clone() SchemaObject
	References() []Reference
}

// Base carries the identity and metadata fields common to every schema
// object kind. Enabled is inherited from the owning schema unless the record
// carried its own override; EnabledExplicit records which of the two applies,
// so inherited state can be re-derived when the schema is enabled or
// disabled.
type Base struct {
	OID             OID                 `json:"oid"`
	Names           []string            `json:"names,omitempty"`
	Description     string              `json:"description,omitempty"`
	SchemaName      string              `json:"schema,omitempty"`
	Obsolete        bool                `json:"obsolete,omitempty"`
	Enabled         bool                `json:"enabled"`
	EnabledExplicit bool                `json:"enabledExplicit,omitempty"`
	Extensions      map[string][]string `json:"extensions,omitempty"`
}

// ID returns the object identifier.
func (b *Base) ID() OID { return b.OID }

// Common exposes the shared metadata fields.
func (b *Base) Common() *Base { return b }

// cloneBase deep-copies the common fields.
func (b Base) cloneBase() Base {
	cp := b
	cp.Names = append([]string(nil), b.Names...)
	if b.Extensions != nil {
		cp.Extensions = make(map[string][]string, len(b.Extensions))
		for k, v := range b.Extensions {
			cp.Extensions[k] = append([]string(nil), v...)
		}
	}
	return cp
}

// ExtensionKeys returns the extension keys in sorted order.
func (b *Base) ExtensionKeys() []string {
	keys := make([]string, 0, len(b.Extensions))
	for k := range b.Extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendRef(refs []Reference, field string, target OID) []Reference {
	if target == "" {
		return refs
	}
	return append(refs, Reference{Field: field, Target: target})
}

func appendRefs(refs []Reference, field string, targets []OID) []Reference {
	for _, t := range targets {
		refs = appendRef(refs, field, t)
	}
	return refs
}

func cloneOIDs(in []OID) []OID { return append([]OID(nil), in...) }

// Usage categorizes how an attribute type is used by the directory.
type Usage int

// Attribute usage categories.
const (
	// UserApplications is the default usage for user attributes.
	UserApplications Usage = iota
	// DirectoryOperation marks an operational attribute private to the directory.
	DirectoryOperation
	// DistributedOperation marks an operational attribute shared between servers.
	DistributedOperation
	// DSAOperation marks an operational attribute local to a single server.
	DSAOperation
)

// String renders the canonical usage token.
func (u Usage) String() string {
	switch u {
	case UserApplications:
		return "userApplications"
	case DirectoryOperation:
		return "directoryOperation"
	case DistributedOperation:
		return "distributedOperation"
	case DSAOperation:
		return "dSAOperation"
	default:
		return "unknown"
	}
}

// IsOperational reports whether the usage marks an operational attribute.
func (u Usage) IsOperational() bool { return u != UserApplications }

// ParseUsage parses a usage token, case-sensitively on the canonical forms.
func ParseUsage(s string) (Usage, error) {
	switch s {
	case "", "userApplications":
		return UserApplications, nil
	case "directoryOperation":
		return DirectoryOperation, nil
	case "distributedOperation":
		return DistributedOperation, nil
	case "dSAOperation":
		return DSAOperation, nil
	default:
		return UserApplications, newError(ErrInvalidValue, "unknown attribute usage %q", s)
	}
}

// AttributeType defines an attribute: its syntax, matching rules, and value
// constraints. All cross-object fields are OID references resolved against
// the live registries, never direct pointers.
type AttributeType struct {
	Base
	SuperiorOID        OID   `json:"superior,omitempty"`
	EqualityOID        OID   `json:"equality,omitempty"`
	OrderingOID        OID   `json:"ordering,omitempty"`
	SubstringOID       OID   `json:"substring,omitempty"`
	SyntaxOID          OID   `json:"syntax,omitempty"`
	SyntaxLength       int   `json:"syntaxLength,omitempty"`
	SingleValue        bool  `json:"singleValue,omitempty"`
	Collective         bool  `json:"collective,omitempty"`
	NoUserModification bool  `json:"noUserModification,omitempty"`
	Usage              Usage `json:"usage,omitempty"`
}

// Kind returns KindAttributeType.
func (a *AttributeType) Kind() Kind { return KindAttributeType }

// Clone returns an independent deep copy.
func (a *AttributeType) Clone() SchemaObject {
	cp := *a
	cp.Base = a.Base.cloneBase()
	return &cp
}

// References lists the outbound OID references of the attribute type.
func (a *AttributeType) References() []Reference {
	var refs []Reference
	refs = appendRef(refs, "SUP", a.SuperiorOID)
	refs = appendRef(refs, "EQUALITY", a.EqualityOID)
	refs = appendRef(refs, "ORDERING", a.OrderingOID)
	refs = appendRef(refs, "SUBSTR", a.SubstringOID)
	refs = appendRef(refs, "SYNTAX", a.SyntaxOID)
	return refs
}

// IsOperational reports whether the attribute is operational.
func (a *AttributeType) IsOperational() bool { return a.Usage.IsOperational() }

// ClassKind distinguishes structural, abstract and auxiliary object classes.
type ClassKind int

// Object class kinds.
const (
	// Structural classes define the core identity of an entry.
	Structural ClassKind = iota
	// Abstract classes only serve as superiors of other classes.
	Abstract
	// Auxiliary classes decorate entries with additional attributes.
	Auxiliary
)

// String renders the RFC 4512 kind token.
func (k ClassKind) String() string {
	switch k {
	case Abstract:
		return "ABSTRACT"
	case Auxiliary:
		return "AUXILIARY"
	case Structural:
		return "STRUCTURAL"
	default:
		return "UNKNOWN"
	}
}

// ParseClassKind parses an RFC 4512 kind token.
func ParseClassKind(s string) (ClassKind, error) {
	switch s {
	case "", "STRUCTURAL":
		return Structural, nil
	case "ABSTRACT":
		return Abstract, nil
	case "AUXILIARY":
		return Auxiliary, nil
	default:
		return Structural, newError(ErrInvalidValue, "unknown object class kind %q", s)
	}
}

// ObjectClass defines the attribute sets an entry of that class must and may
// carry, and its place in the class hierarchy.
type ObjectClass struct {
	Base
	SuperiorOIDs []OID     `json:"superiors,omitempty"`
	MustOIDs     []OID     `json:"must,omitempty"`
	MayOIDs      []OID     `json:"may,omitempty"`
	ClassKind    ClassKind `json:"classKind,omitempty"`
}

// Kind returns KindObjectClass.
func (o *ObjectClass) Kind() Kind { return KindObjectClass }

// Clone returns an independent deep copy.
func (o *ObjectClass) Clone() SchemaObject {
	cp := *o
	cp.Base = o.Base.cloneBase()
	cp.SuperiorOIDs = cloneOIDs(o.SuperiorOIDs)
	cp.MustOIDs = cloneOIDs(o.MustOIDs)
	cp.MayOIDs = cloneOIDs(o.MayOIDs)
	return &cp
}

// References lists the outbound OID references of the object class.
func (o *ObjectClass) References() []Reference {
	var refs []Reference
	refs = appendRefs(refs, "SUP", o.SuperiorOIDs)
	refs = appendRefs(refs, "MUST", o.MustOIDs)
	refs = appendRefs(refs, "MAY", o.MayOIDs)
	return refs
}

// MatchingRule defines how values of a given syntax are compared.
type MatchingRule struct {
	Base
	SyntaxOID OID `json:"syntax,omitempty"`
}

// Kind returns KindMatchingRule.
func (m *MatchingRule) Kind() Kind { return KindMatchingRule }

// Clone returns an independent deep copy.
func (m *MatchingRule) Clone() SchemaObject {
	cp := *m
	cp.Base = m.Base.cloneBase()
	return &cp
}

// References lists the outbound OID references of the matching rule.
func (m *MatchingRule) References() []Reference {
	return appendRef(nil, "SYNTAX", m.SyntaxOID)
}

// LDAPSyntax defines a value syntax. Validation behavior is supplied by a
// syntax checker registered under the same OID.
type LDAPSyntax struct {
	Base
	HumanReadable bool `json:"humanReadable,omitempty"`
}

// Kind returns KindLDAPSyntax.
func (s *LDAPSyntax) Kind() Kind { return KindLDAPSyntax }

// Clone returns an independent deep copy.
func (s *LDAPSyntax) Clone() SchemaObject {
	cp := *s
	cp.Base = s.Base.cloneBase()
	return &cp
}

// References returns nil; syntaxes are leaves of the reference graph.
func (s *LDAPSyntax) References() []Reference { return nil }

// MatchingRuleUse restricts the attribute types a matching rule applies to.
type MatchingRuleUse struct {
	Base
	AppliesOIDs []OID `json:"applies,omitempty"`
}

// Kind returns KindMatchingRuleUse.
func (m *MatchingRuleUse) Kind() Kind { return KindMatchingRuleUse }

// Clone returns an independent deep copy.
func (m *MatchingRuleUse) Clone() SchemaObject {
	cp := *m
	cp.Base = m.Base.cloneBase()
	cp.AppliesOIDs = cloneOIDs(m.AppliesOIDs)
	return &cp
}

// References lists the attribute types the rule use applies to.
func (m *MatchingRuleUse) References() []Reference {
	return appendRefs(nil, "APPLIES", m.AppliesOIDs)
}

// DITContentRule constrains the auxiliary classes and attributes of entries
// governed by a structural class.
type DITContentRule struct {
	Base
	StructuralClassOID OID   `json:"structuralClass,omitempty"`
	AuxiliaryOIDs      []OID `json:"auxiliary,omitempty"`
	MustOIDs           []OID `json:"must,omitempty"`
	MayOIDs            []OID `json:"may,omitempty"`
	NotOIDs            []OID `json:"not,omitempty"`
}

// Kind returns KindDITContentRule.
func (d *DITContentRule) Kind() Kind { return KindDITContentRule }

// Clone returns an independent deep copy.
func (d *DITContentRule) Clone() SchemaObject {
	cp := *d
	cp.Base = d.Base.cloneBase()
	cp.AuxiliaryOIDs = cloneOIDs(d.AuxiliaryOIDs)
	cp.MustOIDs = cloneOIDs(d.MustOIDs)
	cp.MayOIDs = cloneOIDs(d.MayOIDs)
	cp.NotOIDs = cloneOIDs(d.NotOIDs)
	return &cp
}

// References lists the outbound OID references of the content rule.
func (d *DITContentRule) References() []Reference {
	var refs []Reference
	refs = appendRef(refs, "FORM", d.StructuralClassOID)
	refs = appendRefs(refs, "AUX", d.AuxiliaryOIDs)
	refs = appendRefs(refs, "MUST", d.MustOIDs)
	refs = appendRefs(refs, "MAY", d.MayOIDs)
	refs = appendRefs(refs, "NOT", d.NotOIDs)
	return refs
}

// DITStructureRule constrains where entries of a name form may sit in the
// tree. Its identity is a numeric rule id, not a dotted OID.
type DITStructureRule struct {
	Base
	RuleID          int   `json:"ruleId"`
	NameFormOID     OID   `json:"form,omitempty"`
	SuperiorRuleIDs []int `json:"superiorRules,omitempty"`
}

// Kind returns KindDITStructureRule.
func (d *DITStructureRule) Kind() Kind { return KindDITStructureRule }

// RuleOID renders a structure rule id in the catalog's OID namespace.
func RuleOID(id int) OID { return OID(strconv.Itoa(id)) }

// Clone returns an independent deep copy.
func (d *DITStructureRule) Clone() SchemaObject {
	cp := *d
	cp.Base = d.Base.cloneBase()
	cp.SuperiorRuleIDs = append([]int(nil), d.SuperiorRuleIDs...)
	return &cp
}

// References lists the name form and superior rules.
func (d *DITStructureRule) References() []Reference {
	var refs []Reference
	refs = appendRef(refs, "FORM", d.NameFormOID)
	for _, id := range d.SuperiorRuleIDs {
		refs = appendRef(refs, "SUP", RuleOID(id))
	}
	return refs
}

// NameForm names the structural class and naming attributes of an entry.
type NameForm struct {
	Base
	StructuralClassOID OID   `json:"structuralClass,omitempty"`
	MustOIDs           []OID `json:"must,omitempty"`
	MayOIDs            []OID `json:"may,omitempty"`
}

// Kind returns KindNameForm.
func (n *NameForm) Kind() Kind { return KindNameForm }

// Clone returns an independent deep copy.
func (n *NameForm) Clone() SchemaObject {
	cp := *n
	cp.Base = n.Base.cloneBase()
	cp.MustOIDs = cloneOIDs(n.MustOIDs)
	cp.MayOIDs = cloneOIDs(n.MayOIDs)
	return &cp
}

// References lists the outbound OID references of the name form.
func (n *NameForm) References() []Reference {
	var refs []Reference
	refs = appendRef(refs, "OC", n.StructuralClassOID)
	refs = appendRefs(refs, "MUST", n.MustOIDs)
	refs = appendRefs(refs, "MAY", n.MayOIDs)
	return refs
}
