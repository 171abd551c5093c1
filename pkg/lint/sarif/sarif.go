// Package sarif builds SARIF 2.1.0 reports from lint results.
package sarif

// Report represents a SARIF 2.1.0 report containing one or more runs.
type Report struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

// NewReport creates a new SARIF report with the given runs.
func NewReport(runs ...Run) Report {
	return Report{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    runs,
	}
}

// Run represents a single run of the linter.
type Run struct {
	Tool      Tool       `json:"tool"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Results   []Result   `json:"results"`
}

// NewRun creates a run for the named tool.
func NewRun(name, version, infoURI string) Run {
	return Run{
		Tool: Tool{
			Driver: Driver{
				Name:    name,
				Version: version,
				InfoURI: infoURI,
				Rules:   []Rule{},
			},
		},
		Results: []Result{},
	}
}

// WithRules adds rules to the run and returns the modified run.
func (r Run) WithRules(rules ...Rule) Run {
	r.Tool.Driver.Rules = append(r.Tool.Driver.Rules, rules...)
	return r
}

// WithArtifacts adds artifacts to the run and returns the modified run.
func (r Run) WithArtifacts(artifacts ...Artifact) Run {
	r.Artifacts = append(r.Artifacts, artifacts...)
	return r
}

// WithResults adds results to the run and returns the modified run.
func (r Run) WithResults(results ...Result) Run {
	r.Results = append(r.Results, results...)
	return r
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	InfoURI string `json:"informationUri,omitempty"`
	Rules   []Rule `json:"rules"`
}

// Rule is a reporting descriptor for one lint rule.
type Rule struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ShortDescription     Message        `json:"shortDescription"`
	FullDescription      *Message       `json:"fullDescription,omitempty"`
	HelpURI              string         `json:"helpUri,omitempty"`
	DefaultConfiguration *Configuration `json:"defaultConfiguration,omitempty"`
}

// Configuration carries a rule's default level.
type Configuration struct {
	Level string `json:"level"`
}

// NewRule creates a rule with an ID, name and short description.
func NewRule(id, name, shortDescription string) Rule {
	return Rule{
		ID:               id,
		Name:             name,
		ShortDescription: Message{Text: shortDescription},
	}
}

// WithHelp sets the full description and help URI.
func (r Rule) WithHelp(fullDescription, helpURI string) Rule {
	if fullDescription != "" {
		r.FullDescription = &Message{Text: fullDescription}
	}
	r.HelpURI = helpURI
	return r
}

// WithLevel sets the rule's default level.
func (r Rule) WithLevel(level string) Rule {
	r.DefaultConfiguration = &Configuration{Level: level}
	return r
}

// Artifact is a file analyzed by the run.
type Artifact struct {
	Location RunArtifactLocation `json:"location"`
}

// NewArtifact creates an artifact with the given URI.
func NewArtifact(uri string) Artifact {
	return Artifact{RunArtifactLocation{URI: uri}}
}

type RunArtifactLocation struct {
	URI string `json:"uri"`
}

// Result is a single finding.
type Result struct {
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
	RuleID    string     `json:"ruleId"`
	RuleIndex int        `json:"ruleIndex"`
}

// NewResult creates a result with the given level, message, rule and locations.
func NewResult(level, message, ruleID string, ruleIndex int, locs ...Location) Result {
	return Result{
		Level:     level,
		Message:   Message{Text: message},
		RuleID:    ruleID,
		RuleIndex: ruleIndex,
		Locations: locs,
	}
}

type Message struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

// Location is where a result was found.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// NewLocation creates a location. Lines and columns are one-based.
func NewLocation(uri string, artifactIndex int, region Region) Location {
	return Location{PhysicalLocation{
		ArtifactLocation: ResultArtifactLocation{
			URI:   uri,
			Index: artifactIndex,
		},
		Region: region,
	}}
}

type PhysicalLocation struct {
	ArtifactLocation ResultArtifactLocation `json:"artifactLocation"`
	Region           Region                 `json:"region"`
}

type ResultArtifactLocation struct {
	URI   string `json:"uri"`
	Index int    `json:"index"`
}

// Region is a one-based span. Columns count UTF-16 code units.
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// Level maps a severity name to a SARIF level.
func Level(severity string) string {
	switch severity {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "note"
	}
}
