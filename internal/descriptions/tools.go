package descriptions

// Tool names
const (
	ToolFillWorkbook       = "forms_fill_workbook"
	ToolValidateWorkbook   = "forms_validate_workbook"
	ToolSearchWorkbooks    = "forms_search_workbooks"
	ToolListInstruments    = "forms_list_instruments"
	ToolWriteInputTemplate = "forms_write_input_template"
	ToolTemplateFields     = "forms_template_fields"
	ToolServerInfo         = "forms_server_info"
)

// Tool descriptions with practical examples and use cases
const (
	FillWorkbookDescription = `Score assessment workbooks and produce the filled, annotated PDF forms.

**When to use:** A clinician has completed one or more input workbooks and needs the printable forms.

**Why it's useful:** Every instrument in a workbook is scored, written onto its official form with answers highlighted, and all forms for a patient are combined into one PDF.

**Examples:**
• Single patient: "Fill jane-doe.xlsx"
• Several patients at once: "Fill intake-1.xlsx and intake-2.xlsx as one zip"

**Common workflows:**
1. forms_validate_workbook → fix reported fields → forms_fill_workbook
2. forms_search_workbooks → forms_fill_workbook with the paths found

**Best practices:** Validate first. When any workbook in a batch has errors, no documents are written unless partial batches are enabled.`

	ValidateWorkbookDescription = `Check an assessment workbook and preview its scores without producing PDFs.

**When to use:** Before filling, or to read totals and bands (e.g. FRAT risk, CANS level) directly.

**Why it's useful:** Reports every blank or invalid answer with its column and question, exactly as the fill tool would, and returns each instrument's computed fields.

**Examples:**
• "Is jane-doe.xlsx complete?"
• "What is the WHODAS total for jane-doe.xlsx?"

**Best practices:** Messages name the column and question key to fix in the workbook.`

	SearchWorkbooksDescription = `Find assessment workbooks (.xlsx) in the work directory.

**When to use:** To discover which workbooks are available before validating or filling them.

**Examples:**
• "List workbooks" (no query)
• "Find workbooks for doe" (query matches every word against file names)`

	ListInstrumentsDescription = `List the supported assessment instruments, their question keys and download slugs.

**When to use:** Preparing a workbook by hand, or checking which blank forms are installed.`

	WriteInputTemplateDescription = `Write a blank input workbook with a GENERAL section and one column pair per instrument.

**When to use:** Starting a new assessment. Fill in only the instruments administered; empty columns are ignored.`

	TemplateFieldsDescription = `List the form fields (name, type, page, rectangle) of an instrument's blank PDF.

**When to use:** Maintaining form templates, or checking that a template's field names match the scored fields.

**Examples:**
• "Show the fields of the WHODAS form"
• "List fields for frat"`

	ServerInfoDescription = `Show server configuration, supported instruments, available workbooks and tool usage guidance.

**When to use:** First call in a session, or when unsure which tool to use.`
)
