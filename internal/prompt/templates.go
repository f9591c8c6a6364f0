package prompt

// Templates use literal {placeholder} tokens instead of text/template:
// optimized templates come back from the model as plain text and are
// validated for placeholder presence before reuse, so the token must
// survive a round-trip through model output unchanged.

// PlaceholderCompany must be present in any template used for
// discovery, including model-rewritten ones.
const PlaceholderCompany = "{company_name}"

const PlaceholderCategory = "{source_type}"

const placeholderOptimization = "{optimization_instructions}"

const placeholderURL = "{report_url}"

const baseTemplate = `
YOU ARE A FINANCIAL RESEARCH EXPERT specializing in locating authoritative and official financial data sources for multinational companies.

TASK: Identify the most authoritative, specific, and up-to-date financial data source for "{company_name}" (requested source type: {source_type}).

INSTRUCTIONS:

1. URL SELECTION
- Provide the MOST SPECIFIC URL directly linking to the page or document containing the latest financial data.
- Avoid generic URLs such as the company homepage or broad IR landing pages.
- Prioritize URLs pointing to specific financial statements, reports, or filings over general pages.
- Prefer official Investor Relations (IR) pages over aggregators or search engines.
- For U.S. companies, SEC filings (10-K, 10-Q) are IDEAL; for EU companies, ESEF/XBRL reports are preferred.
- PDF or XBRL documents are HIGHLY PREFERRED over HTML pages.

2. REFERENCE YEAR
- Identify the fiscal/reporting year of the financial data, NOT the publication year.
- Choose the MOST RECENT period available (annual or quarterly).
- Use numeric year format, e.g., "2023" or "2023-2024".

3. SOURCE PRIORITY (based on {source_type}):
- Annual Report: IR website > SEC filings > official PDFs > financial databases
- Consolidated: official consolidated documents > IR website > financial databases
- Quarterly: official quarterly reports > IR website > financial databases
- Other types: IR website > official documents > reliable financial databases

4. PRIORITIZATION OVERALL:
Official IR page > Specific document/report > Financial database > Aggregator

5. CONFIDENCE ASSESSMENT
- HIGH: Direct official documents/reports from IR or regulator with clear recent fiscal year.
- MEDIUM: Reliable financial databases or aggregated sources with recent data.
- LOW: Indirect, outdated, or generic sources.

RESPONSE FORMAT:

Return a JSON object ONLY, with EXACT fields and no extra text or commentary:

{
    "url": "EXACT_SOURCE_URL",
    "year": "REFERENCE_YEAR",
    "confidence": "HIGH/MEDIUM/LOW",
    "source_description": "{source_type}"
}

{optimization_instructions}

IMPORTANT: If multiple sources are found, select ONLY the best one according to the above criteria. Accuracy and relevance are critical.
`

const improveTemplate = `The following URL returns a "Page Not Found" error: {report_url} for the company {company_name}.
This URL is supposed to contain the annual report or financial document for the company.
Please identify the correct or updated URL that provides the equivalent content. If the content has been
relocated, renamed, or archived, provide the most relevant and current URL from the official website.
Remember that the Response format must be:
RESPONSE FORMAT:

{
    "url": "Direct URL to the financial document (not the page containing it)",
    "year": "Fiscal year of the report (YYYY)",
    "confidence": "HIGH/MEDIUM/LOW",
    "source_description": "Brief explanation of your choice"
}

IMPORTANT:
- Always prefer direct links to PDFs or specific documents
- The URL must be from the official website of the company
- The URL must be in English
- The URL must be rich in content and not a landing page or a search result
- Verify that the URL is accessible and does not require login
- Indicate the most recent available fiscal year
`

const validationTemplate = `
You are an EXPERT VALIDATOR of financial sources for multinational companies.

CONTEXT:
- Company: {company_name}
- Type of source requested: {source_type}

RESULT TO VALIDATE:
- URL: {url}
- Fiscal year: {year}
- Source description: {source_description}
- Declared confidence level: {confidence}

TASK:
Evaluate the accuracy and reliability of this result. Consider:
1. Does the URL appear to be an official source and directly point to the requested document?
2. Is the fiscal year plausible and recent?
3. Is the source appropriate for the requested type?

RETURN YOUR EVALUATION IN THIS JSON FORMAT:
{
    "is_valid": true/false,
    "validation_score": 0-100,
    "feedback": "Detailed explanation of your evaluation",
    "improvement_suggestions": ["Specific suggestions to improve the search"]
}
`

const synthesisTemplate = `
ROLE:
You are a SENIOR FINANCIAL DATA ANALYST and TECHNICAL WEB SCRAPING ENGINEER. Your expertise lies in accurately identifying, extracting, and verifying official financial data sources for global companies using clean and reliable Go code.

OBJECTIVE:
Develop a Go program to locate and extract the most credible, authoritative, and specific financial data source for the company: "{company_name}", targeting the source type: "{source_type}".

TARGET SOURCE TYPES:
- Company's official Investor Relations site
- Official press releases
- Regulatory filings (e.g., SEC EDGAR)
- Major financial news platforms

TECHNICAL REQUIREMENTS:
- Use ONLY the Go standard library. Allowed imports: net/http, net/url, strings, regexp, encoding/json, fmt, io, time, strconv, sort, bytes, errors.
- HTTP requests via net/http with a client timeout of 5 seconds per request.
- Intelligent link discovery to detect likely financial data pages.
- Metadata extraction: publication year, page type.
- Handle request failures, malformed pages and missing content without panicking.

OUTPUT CONTRACT (MANDATORY):
Declare a package-level variable:

    var result map[string]string

and a func main() that assigns the final findings to it:

    result = map[string]string{
        "url":                "EXACT_SOURCE_URL",
        "year":               "REFERENCE_YEAR",
        "confidence":         "HIGH/MEDIUM/LOW",
        "source_description": "description of the source found",
    }

CONSTRAINTS:
- DO NOT use third-party packages, browser automation, paid APIs, os, os/exec, syscall or unsafe.
- Use only publicly available and reputable sources.
- The program must terminate quickly; cap total work at a handful of requests.
- The response must be ONLY a Go source file, package main, no other text.
`

const optimizationRequestTemplate = `
YOU ARE AN EXPERT IN PROMPT ENGINEERING specializing in optimizing prompts for artificial intelligence systems.

TASK: Optimize the existing prompt to improve the search for financial data for the company "{company_name}".

FEEDBACK FROM THE LAST ATTEMPT:
- Identified issues: {problems}
- Suggestions: {suggestions}

{scraping_info}

CURRENT PROMPT:
` + "```" + `
{current_prompt}
` + "```" + `

INSTRUCTIONS FOR OPTIMIZATION:
1. Maintain the general structure of the prompt
2. Add specific instructions to address the identified issues
3. Improve the precision of requests to obtain direct URLs to documents
4. Ensure the prompt explicitly requests the correct fiscal year
5. Strengthen search priorities based on the type of source requested
6. Keep the literal {company_name} placeholder in the new prompt

RETURN ONLY THE NEW OPTIMIZED PROMPT, WITHOUT ADDITIONAL EXPLANATIONS OR COMMENTS.
`
