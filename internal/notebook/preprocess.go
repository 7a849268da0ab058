package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Generated descreve um arquivo sintetizado a partir de um notebook.
// StartLine é a linha 1-based no arquivo de origem onde o conteúdo começa.
// Para células de .ipynb o modelo JSON não tem linha física confiável, então
// fica 1 (aproximação documentada); para blocos %sql de .py exportado a linha
// é exata e o remap reaproveita.
type Generated struct {
	Path      string
	Origin    string
	StartLine int
}

const (
	dbxSourceMarker = "# Databricks notebook source"
	magicSQLMarker  = "# MAGIC %sql"
)

// Preprocess converte notebooks (.ipynb e .py exportado) em arquivos .py/.sql
// planos dentro de outDir. Melhor esforço: arquivo ilegível ou malformado é
// pulado em silêncio.
func Preprocess(targets []string, outDir string) []Generated {
	var generated []Generated
	for _, path := range targets {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ipynb":
			generated = append(generated, processIpynb(path, outDir)...)
		case ".py":
			head, err := readHead(path, 4096)
			if err != nil {
				continue
			}
			if strings.Contains(head, dbxSourceMarker) || strings.Contains(head, magicSQLMarker) {
				generated = append(generated, processExportedPy(path, outDir)...)
			}
		}
	}
	return generated
}

type ipynbDoc struct {
	Cells []ipynbCell `json:"cells"`
}

type ipynbCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// cellSource aceita tanto lista de linhas quanto string única.
func (c ipynbCell) cellSource() []string {
	var lines []string
	if err := json.Unmarshal(c.Source, &lines); err == nil {
		return lines
	}
	var s string
	if err := json.Unmarshal(c.Source, &s); err == nil {
		return strings.SplitAfter(s, "\n")
	}
	return nil
}

func processIpynb(srcPath, outDir string) []Generated {
	var out []Generated
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return out
	}
	var nb ipynbDoc
	if err := json.Unmarshal(data, &nb); err != nil {
		return out
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	for idx, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		lines := make([]string, 0, 8)
		for _, l := range cell.cellSource() {
			lines = append(lines, strings.TrimRight(l, "\n"))
		}
		firstNonEmpty := ""
		magicIdx := -1
		for i, l := range lines {
			if strings.TrimSpace(l) != "" {
				firstNonEmpty = strings.TrimSpace(l)
				magicIdx = i
				break
			}
		}
		if strings.HasPrefix(firstNonEmpty, "%sql") || strings.HasPrefix(firstNonEmpty, "%%sql") {
			// SQL é tudo depois da primeira linha de magic
			sqlText := strings.TrimSpace(strings.Join(lines[magicIdx+1:], "\n"))
			if sqlText == "" {
				continue
			}
			outPath := filepath.Join(outDir, fmt.Sprintf("%s__cell%03d.sql", base, idx))
			if writeFile(outPath, sqlText) {
				out = append(out, Generated{Path: outPath, Origin: srcPath, StartLine: 1})
			}
		} else {
			code := strings.Join(lines, "\n")
			if strings.TrimSpace(code) == "" {
				continue
			}
			outPath := filepath.Join(outDir, fmt.Sprintf("%s__cell%03d.py", base, idx))
			if writeFile(outPath, code) {
				out = append(out, Generated{Path: outPath, Origin: srcPath, StartLine: 1})
			}
		}
	}
	return out
}

// processExportedPy varre um .py exportado do Databricks procurando blocos
// "# MAGIC %sql" contíguos; o bloco termina em "# COMMAND" ou em magic de
// outro tipo.
func processExportedPy(srcPath, outDir string) []Generated {
	var out []Generated
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return out
	}
	lines := strings.Split(string(data), "\n")
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	blockIdx := 0
	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), magicSQLMarker) {
			i++
			continue
		}
		startLine := i + 2 // conteúdo começa na linha seguinte ao marcador (1-based)
		var sqlLines []string
		i++
		for i < len(lines) {
			cur := strings.TrimSpace(lines[i])
			if strings.HasPrefix(cur, "# COMMAND") {
				break
			}
			if strings.HasPrefix(cur, "# MAGIC %") && !strings.HasPrefix(cur, magicSQLMarker) {
				break
			}
			if strings.HasPrefix(cur, "# MAGIC") {
				sqlLines = append(sqlLines, strings.TrimPrefix(strings.TrimPrefix(cur, "# MAGIC "), "# MAGIC"))
			} else {
				sqlLines = append(sqlLines, lines[i])
			}
			i++
		}
		sqlText := strings.TrimSpace(strings.Join(sqlLines, "\n"))
		if sqlText == "" {
			continue
		}
		outPath := filepath.Join(outDir, fmt.Sprintf("%s__sqlblock%03d.sql", base, blockIdx))
		if writeFile(outPath, sqlText) {
			out = append(out, Generated{Path: outPath, Origin: srcPath, StartLine: startLine})
			blockIdx++
		}
	}
	return out
}

func readHead(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, _ := f.Read(buf)
	return string(buf[:read]), nil
}

func writeFile(path, content string) bool {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false
	}
	return os.WriteFile(path, []byte(content), 0o644) == nil
}
