package diag

import (
	"sort"
)

// Code is the stable identifier of one rule, the unit of enable/disable filtering.
type Code string

const (
	UnknownCode Code = ""

	// Манифест и python
	ManifestSyntaxError    Code = "manifest-syntax-error"
	ManifestSuperfluousKey Code = "manifest-superfluous-key"
	MissingReadme          Code = "missing-readme"
	PreferReadmeRst        Code = "prefer-readme-rst"
	FileNotUsed            Code = "file-not-used"
	UseHeaderComments      Code = "use-header-comments"
	UnusedLogger           Code = "unused-logger"
	PreferEnvTranslation   Code = "prefer-env-translation"
	FieldStringRedundant   Code = "field-string-redundant"
	ModuleCheckerError     Code = "module-checker-error"

	// XML
	XMLSyntaxError                 Code = "xml-syntax-error"
	XMLDuplicateRecordID           Code = "xml-duplicate-record-id"
	XMLDuplicateFields             Code = "xml-duplicate-fields"
	XMLDuplicateTemplateID         Code = "xml-duplicate-template-id"
	XMLRedundantModuleName         Code = "xml-redundant-module-name"
	XMLViewDangerousReplaceLowPrio Code = "xml-view-dangerous-replace-low-priority"
	XMLDangerousQwebReplaceLowPrio Code = "xml-dangerous-qweb-replace-low-priority"
	XMLDeprecatedTreeAttribute     Code = "xml-deprecated-tree-attribute"
	XMLCreateUserWoResetPassword   Code = "xml-create-user-wo-reset-password"
	XMLDangerousFilterWoUser       Code = "xml-dangerous-filter-wo-user"
	XMLRecordMissingID             Code = "xml-record-missing-id"
	XMLIDPositionFirst             Code = "xml-id-position-first"
	XMLFieldBoolWithoutEval        Code = "xml-field-bool-without-eval"
	XMLFieldNumericWithoutEval     Code = "xml-field-numeric-without-eval"
	XMLDeprecatedDataNode          Code = "xml-deprecated-data-node"
	XMLDeprecatedOpenerpNode       Code = "xml-deprecated-openerp-node"
	XMLDeprecatedQwebDirective     Code = "xml-deprecated-qweb-directive"
	XMLNotValidCharLink            Code = "xml-not-valid-char-link"
	XMLXpathTranslatableItem       Code = "xml-xpath-translatable-item"
	XMLOeStructureMissingID        Code = "xml-oe-structure-missing-id"
	XMLHeaderMissing               Code = "xml-header-missing"
	XMLHeaderWrong                 Code = "xml-header-wrong"
	XMLDeprecatedOeChatter         Code = "xml-deprecated-oe-chatter"

	// CSV
	CSVSyntaxError       Code = "csv-syntax-error"
	CSVDuplicateRecordID Code = "csv-duplicate-record-id"

	// PO
	POSyntaxError                Code = "po-syntax-error"
	PORequiresModule             Code = "po-requires-module"
	POPythonParsePrintf          Code = "po-python-parse-printf"
	POPythonParseFormat          Code = "po-python-parse-format"
	PODuplicateMessageDefinition Code = "po-duplicate-message-definition"

	// Имена файлов
	SpaceInFilename Code = "space-in-filename"
)

type codeInfo struct {
	title   string
	fixable bool
}

var codeDescription = map[Code]codeInfo{
	UnknownCode: {title: "Unknown check"},

	ManifestSyntaxError:    {title: "Manifest file could not be evaluated as a Python literal"},
	ManifestSuperfluousKey: {title: "Manifest key set to its default value", fixable: true},
	MissingReadme:          {title: "Module has no README file"},
	PreferReadmeRst:        {title: "README should be written in reStructuredText", fixable: true},
	FileNotUsed:            {title: "File is not referenced by the manifest or imported"},
	UseHeaderComments:      {title: "Header comments other than tool directives", fixable: true},
	UnusedLogger:           {title: "Module-level _logger is never used", fixable: true},
	PreferEnvTranslation:   {title: "Use self.env._ instead of _ inside model methods", fixable: true},
	FieldStringRedundant:   {title: "Field string equals the default label", fixable: true},
	ModuleCheckerError:     {title: "Unexpected failure while running a check"},

	XMLSyntaxError:                 {title: "XML file is not well-formed"},
	XMLDuplicateRecordID:           {title: "Duplicate xml record id"},
	XMLDuplicateFields:             {title: "Duplicate field in the same record"},
	XMLDuplicateTemplateID:         {title: "Duplicate template id"},
	XMLRedundantModuleName:         {title: "Own module name used as xml id prefix", fixable: true},
	XMLViewDangerousReplaceLowPrio: {title: "View replaces content with priority lower than 99"},
	XMLDangerousQwebReplaceLowPrio: {title: "QWeb template replaces content with priority lower than 99"},
	XMLDeprecatedTreeAttribute:     {title: "Deprecated <tree> attribute"},
	XMLCreateUserWoResetPassword:   {title: "res.users created without no_reset_password context"},
	XMLDangerousFilterWoUser:       {title: "ir.filters record without user_id"},
	XMLRecordMissingID:             {title: "Record without id"},
	XMLIDPositionFirst:             {title: "id should be the first attribute", fixable: true},
	XMLFieldBoolWithoutEval:        {title: "Boolean field value set as text instead of eval", fixable: true},
	XMLFieldNumericWithoutEval:     {title: "Numeric field value set as text instead of eval", fixable: true},
	XMLDeprecatedDataNode:          {title: "Deprecated <data> node directly under <odoo>"},
	XMLDeprecatedOpenerpNode:       {title: "Deprecated <openerp> root node"},
	XMLDeprecatedQwebDirective:     {title: "Deprecated QWeb directive"},
	XMLNotValidCharLink:            {title: "Linked resource has an invalid extension"},
	XMLXpathTranslatableItem:       {title: "xpath matching translatable text"},
	XMLOeStructureMissingID:        {title: "oe_structure element without id"},
	XMLHeaderMissing:               {title: "XML header is missing", fixable: true},
	XMLHeaderWrong:                 {title: "XML header differs from the expected one", fixable: true},
	XMLDeprecatedOeChatter:         {title: "Deprecated oe_chatter div, use <chatter/>"},

	CSVSyntaxError:       {title: "CSV file could not be read"},
	CSVDuplicateRecordID: {title: "Duplicate csv record id"},

	POSyntaxError:                {title: "PO file could not be parsed"},
	PORequiresModule:             {title: "PO entry without '#. module:' comment"},
	POPythonParsePrintf:          {title: "Translation breaks printf-style placeholders"},
	POPythonParseFormat:          {title: "Translation breaks str.format placeholders"},
	PODuplicateMessageDefinition: {title: "Duplicate PO message definition"},

	SpaceInFilename: {title: "File name contains spaces", fixable: true},
}

// ID returns the code as written in configs and in-file comments.
func (c Code) ID() string {
	return string(c)
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode].title
	}
	return desc.title
}

// Fixable reports whether the rule can rewrite the source.
func (c Code) Fixable() bool {
	return codeDescription[c].fixable
}

// Known reports whether c is part of the catalog.
func (c Code) Known() bool {
	if c == UnknownCode {
		return false
	}
	_, ok := codeDescription[c]
	return ok
}

func (c Code) String() string {
	return string(c)
}

// Codes returns every known code sorted by id.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		if c != UnknownCode {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
