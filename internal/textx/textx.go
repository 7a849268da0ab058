package textx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadText lê um arquivo como texto, ignorando bytes inválidos.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// RelPath devolve path relativo a root, em forma POSIX.
// Se não houver relação possível, devolve o path original.
func RelPath(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// LineFromIndex converte um offset de byte em número de linha 1-based.
func LineFromIndex(text string, idx int) int {
	if idx > len(text) {
		idx = len(text)
	}
	return strings.Count(text[:idx], "\n") + 1
}

// SafeSnippet monta uma janela de contexto em volta da linha alvo,
// numerada e com a linha marcada por "-->".
func SafeSnippet(text string, line int) string {
	return SnippetContext(text, line, 2)
}

func SnippetContext(text string, line, context int) string {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || text == "" {
		return ""
	}
	i := line - 1
	if i < 0 {
		i = 0
	}
	if i > len(lines)-1 {
		i = len(lines) - 1
	}
	start := i - context
	if start < 0 {
		start = 0
	}
	end := i + context + 1
	if end > len(lines) {
		end = len(lines)
	}
	var sb strings.Builder
	for idx := start; idx < end; idx++ {
		prefix := "   "
		if idx == i {
			prefix = "-->"
		}
		fmt.Fprintf(&sb, "%s %5d: %s", prefix, idx+1, lines[idx])
		if idx != end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
