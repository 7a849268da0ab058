package sniff

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Snippet é um trecho embutido extraído de um texto hospedeiro.
// StartLine é a linha 1-based no texto ORIGINAL onde o trecho começa;
// o pipeline depende desse valor para remapear findings.
type Snippet struct {
	Ext       string
	Text      string
	StartLine int
}

var knownExts = map[string]bool{
	".py": true, ".sh": true, ".bash": true, ".sql": true,
	".js": true, ".ts": true, ".java": true, ".go": true,
	".rb": true, ".php": true, ".cs": true,
}

var (
	sqlHintRe   = regexp.MustCompile(`(?i)\b(SELECT|INSERT\s+INTO|UPDATE\s+\w+\s+SET|DELETE\s+FROM|GRANT\s+ALL|DROP\s+TABLE|TRUNCATE\s+TABLE)\b`)
	shellHintRe = regexp.MustCompile(`(?im)(^#!.*\b(bash|sh)\b)|(curl\s+|wget\s+|rm\s+-rf\s+|chmod\s+[0-7]{3}|sudo\s+)`)

	pyMarkerRe   = regexp.MustCompile(`\b(def|import|from\s+\w+\s+import)\b`)
	jsMarkerRe   = regexp.MustCompile(`\b(function\s+\w+|import\s+.*from\s+['"])`)
	javaMarkerRe = regexp.MustCompile(`\bpackage\s+\w+;|public\s+class\b`)
	goMarkerRe   = regexp.MustCompile(`\bpackage\s+\w+\n|func\s+\w+\(`)
)

// GuessExtensions deduz extensões prováveis a partir do conteúdo e do nome.
// A primeira heurística que bater vence; lista vazia significa "sem palpite"
// (o arquivo fica sem tipo e fora dos engines sensíveis a extensão).
func GuessExtensions(text, filename string) []string {
	ext := strings.ToLower(filepath.Ext(filename))
	if knownExts[ext] {
		return []string{ext}
	}
	if strings.HasPrefix(text, "#!/") {
		first, _, _ := strings.Cut(text, "\n")
		if strings.Contains(first, "bash") || strings.HasSuffix(first, "/sh") {
			return []string{".sh"}
		}
	}
	if pyMarkerRe.MatchString(text) {
		return []string{".py"}
	}
	if jsMarkerRe.MatchString(text) {
		return []string{".js"}
	}
	if javaMarkerRe.MatchString(text) {
		return []string{".java"}
	}
	if goMarkerRe.MatchString(text) {
		return []string{".go"}
	}
	if sqlHintRe.MatchString(text) {
		return []string{".sql"}
	}
	if shellHintRe.MatchString(text) {
		return []string{".sh"}
	}
	return nil
}

var (
	fencedSQLRe   = regexp.MustCompile("(?is)```(sql|postgres|tsql|bigquery)\\s*(.*?)```")
	fencedShellRe = regexp.MustCompile("(?is)```(bash|sh|shell)\\s*(.*?)```")

	javaExecRe    = regexp.MustCompile(`Runtime\.getRuntime\(\)\.exec\(\s*"([^"]+)"\s*\)`)
	procBuilderRe = regexp.MustCompile(`ProcessBuilder\(\s*"bash"\s*,\s*"-c"\s*,\s*"([^"]+)"\s*\)`)
	jdbcExecRe    = regexp.MustCompile(`\.(execute|executeQuery|prepareStatement)\(\s*"([^"]+)"\s*\)`)
	childProcRe   = regexp.MustCompile(`child_process\.(exec|execSync)\(\s*['"]([^'"]+)['"]\s*\)`)
	spawnShellRe  = regexp.MustCompile(`spawn\(\s*['"](bash|sh)['"]\s*,\s*\[\s*['"]-c['"]\s*,\s*['"]([^'"]+)['"]\s*\]`)
	dbQueryRe     = regexp.MustCompile(`\.(query|execute)\(\s*['"]([^'"]+)['"]\s*\)`)
)

// ExtractEmbeddedSnippets extrai trechos SQL/shell embutidos em qualquer texto.
// Cada extrator roda de forma independente sobre o texto inteiro e os
// resultados são unidos; um mesmo texto pode render vários trechos.
func ExtractEmbeddedSnippets(text string) []Snippet {
	var out []Snippet

	for _, m := range fencedSQLRe.FindAllStringSubmatchIndex(text, -1) {
		body := strings.TrimSpace(text[m[4]:m[5]])
		out = append(out, Snippet{Ext: ".sql", Text: body, StartLine: lineAt(text, m[0])})
	}
	for _, m := range fencedShellRe.FindAllStringSubmatchIndex(text, -1) {
		body := strings.TrimSpace(text[m[4]:m[5]])
		out = append(out, Snippet{Ext: ".sh", Text: body, StartLine: lineAt(text, m[0])})
	}

	// Statements SQL inline: até o próximo ponto-e-vírgula, com limite de 1000 bytes;
	// sem ";", fica só a primeira linha do segmento.
	for _, m := range sqlHintRe.FindAllStringIndex(text, -1) {
		end := m[0] + 1000
		if end > len(text) {
			end = len(text)
		}
		segment := text[m[0]:end]
		var snippet string
		if semi := strings.Index(segment, ";"); semi != -1 {
			snippet = segment[:semi+1]
		} else {
			snippet, _, _ = strings.Cut(segment, "\n")
		}
		out = append(out, Snippet{Ext: ".sql", Text: strings.TrimSpace(snippet), StartLine: lineAt(text, m[0])})
	}

	// Marcadores de shell: o trecho é a linha inteira que contém o match.
	for _, m := range shellHintRe.FindAllStringIndex(text, -1) {
		lineStart := strings.LastIndex(text[:m[0]], "\n") + 1
		lineEnd := strings.Index(text[m[0]:], "\n")
		if lineEnd == -1 {
			lineEnd = len(text)
		} else {
			lineEnd += m[0]
		}
		out = append(out, Snippet{Ext: ".sh", Text: strings.TrimSpace(text[lineStart:lineEnd]), StartLine: lineAt(text, m[0])})
	}

	// Java: Runtime.exec e ProcessBuilder("bash","-c",...)
	for _, m := range javaExecRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Snippet{Ext: ".sh", Text: text[m[2]:m[3]], StartLine: lineAt(text, m[0])})
	}
	for _, m := range procBuilderRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Snippet{Ext: ".sh", Text: text[m[2]:m[3]], StartLine: lineAt(text, m[0])})
	}
	// JDBC: execute/executeQuery/prepareStatement com literal que parece SQL
	for _, m := range jdbcExecRe.FindAllStringSubmatchIndex(text, -1) {
		sql := text[m[4]:m[5]]
		if sqlHintRe.MatchString(sql) {
			out = append(out, Snippet{Ext: ".sql", Text: sql, StartLine: lineAt(text, m[0])})
		}
	}

	// JavaScript/TypeScript: child_process e spawn('sh','-c',...)
	for _, m := range childProcRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Snippet{Ext: ".sh", Text: text[m[4]:m[5]], StartLine: lineAt(text, m[0])})
	}
	for _, m := range spawnShellRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Snippet{Ext: ".sh", Text: text[m[4]:m[5]], StartLine: lineAt(text, m[0])})
	}
	// db.query("SQL ...") e afins
	for _, m := range dbQueryRe.FindAllStringSubmatchIndex(text, -1) {
		s := text[m[4]:m[5]]
		if sqlHintRe.MatchString(s) {
			out = append(out, Snippet{Ext: ".sql", Text: s, StartLine: lineAt(text, m[0])})
		}
	}

	return out
}

func lineAt(text string, idx int) int {
	return strings.Count(text[:idx], "\n") + 1
}
